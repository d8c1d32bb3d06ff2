package teamsync

import "github.com/meltforce/wodlink/internal/share"

// Level is the severity of a notification.
type Level string

// Notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is the single user-visible message produced by a sync or share
// run.
type Notification struct {
	Level   Level      `json:"level"`
	Message string     `json:"message"`
	Kind    share.Kind `json:"kind,omitempty"`
	Count   int        `json:"count,omitempty"`
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// MessageTooLarge tells the user a record must travel as a bulk export.
const MessageTooLarge = "WOD TOO BIG FOR LINK - USE JSON EXPORT"

// User-facing messages.
const (
	msgSyncFailed  = "SYNC FAILED: DATA CORRUPT OR TOO LARGE"
	msgSaveFailed  = "SYNC FAILED: COULD NOT UPDATE YOUR LIBRARY"
	msgShareFailed = "SHARE FAILED"
	msgLinkCopied  = "TEAM SYNC LINK COPIED"
	shareTitle     = "OTB PROGRAMMING"
	textSession    = "Check this OTB Session:"
	textDay        = "Here is the full OTB day:"
	textBlueprint  = "New OTB blueprint for your library:"
)

func successMessage(kind share.Kind, n int) string {
	switch kind {
	case share.KindSingleSession:
		return "1 SESSION SYNCED TO YOUR SCHEDULE"
	case share.KindDayBatch:
		return plural(n, "DAY SYNCED: %d SESSION ADDED TO YOUR SCHEDULE", "DAY SYNCED: %d SESSIONS ADDED TO YOUR SCHEDULE")
	default:
		return plural(n, "%d BLUEPRINT SYNCED TO TEAM LIBRARY", "%d BLUEPRINTS SYNCED TO TEAM LIBRARY")
	}
}

func shareText(kind share.Kind) string {
	switch kind {
	case share.KindDayBatch:
		return textDay
	case share.KindBlueprint:
		return textBlueprint
	default:
		return textSession
	}
}
