// Package teamsync drives a shared link through its lifecycle: decoding an
// inbound token and merging it into local collections, or turning local
// records into a link and handing it to a transport.
package teamsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meltforce/wodlink/internal/dispatch"
	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
)

// ErrNotFound reports a share request for a record that does not exist.
var ErrNotFound = errors.New("teamsync: record not found")

// ErrNothingToShare reports a day with no sessions.
var ErrNothingToShare = errors.New("teamsync: nothing to share")

// State is a step of the inbound lifecycle.
type State int

// Inbound lifecycle states.
const (
	StateIdle State = iota
	StateDecoding
	StateReconciling
	StateNotified
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDecoding:
		return "decoding"
	case StateReconciling:
		return "reconciling"
	case StateNotified:
		return "notified"
	default:
		return "unknown"
	}
}

// Target is the collection state a merge is applied to. The controller holds
// no collection state of its own.
type Target interface {
	Snapshot() models.Collections
	// Update runs fn with exclusive access to a copy of the collections and
	// replaces them only if fn returns nil.
	Update(ctx context.Context, fn func(c *models.Collections) error) error
	// SetFocus moves the active calendar date.
	SetFocus(date string)
}

// Dispatcher delivers a finished link.
type Dispatcher interface {
	Dispatch(ctx context.Context, m dispatch.Message) (dispatch.Method, error)
}

// Outcome reports what an inbound run did.
type Outcome struct {
	Kind         share.Kind
	Count        int
	Replaced     int
	Notification *Notification
	Err          error
	Trace        []State
}

// Controller coordinates the share engine. It is safe for concurrent use;
// exclusive access to collections is the Target's job.
type Controller struct {
	baseURL  string
	guard    share.Guard
	dispatch Dispatcher
	notify   Notifier
	log      *slog.Logger
}

// New creates a Controller. baseURL is the landing address links point at.
// d may be nil when only Link is used.
func New(baseURL string, guard share.Guard, d Dispatcher, n Notifier, log *slog.Logger) *Controller {
	if n == nil {
		n = NotifierFunc(func(Notification) {})
	}
	return &Controller{baseURL: baseURL, guard: guard, dispatch: d, notify: n, log: log}
}

// Receive processes the token found in in, if any. Without a token the
// controller stays idle and nothing is notified. Otherwise the token is
// cleared from in before decoding, and exactly one notification is emitted.
// A failed run leaves target untouched.
func (c *Controller) Receive(ctx context.Context, target Target, in Inbound) Outcome {
	out := Outcome{Trace: []State{StateIdle}}
	kind, token, ok := lookup(in)
	if !ok {
		return out
	}
	out.Kind = kind

	out.Trace = append(out.Trace, StateDecoding)
	in.Clear()

	p, err := share.Decode(token)
	if err == nil && p.Kind() != kind {
		err = &share.DecodeError{Reason: fmt.Sprintf("token kind %q does not match parameter %q", p.Kind(), kind.Param())}
	}
	if err != nil {
		c.log.Warn("shared link rejected", "kind", kind, "error", err)
		return c.finish(out, Notification{Level: LevelError, Message: msgSyncFailed, Kind: kind}, err)
	}

	out.Trace = append(out.Trace, StateReconciling)
	out.Count = p.Len()
	incoming := share.IncomingWorkouts(p)
	err = target.Update(ctx, func(cols *models.Collections) error {
		switch v := p.(type) {
		case share.Blueprint:
			out.Replaced = share.Overlap(cols.Templates, v.Templates)
			cols.Templates = share.Reconcile(cols.Templates, v.Templates)
		default:
			out.Replaced = share.Overlap(cols.Workouts, incoming)
			cols.Workouts = share.Reconcile(cols.Workouts, incoming)
		}
		return nil
	})
	if err != nil {
		c.log.Error("applying shared link failed", "kind", kind, "error", err)
		return c.finish(out, Notification{Level: LevelError, Message: msgSaveFailed, Kind: kind}, err)
	}
	if len(incoming) > 0 && incoming[0].Date != "" {
		target.SetFocus(incoming[0].Date)
	}

	c.log.Info("shared link merged", "kind", kind, "count", out.Count, "replaced", out.Replaced)
	return c.finish(out, Notification{
		Level:   LevelSuccess,
		Message: successMessage(kind, out.Count),
		Kind:    kind,
		Count:   out.Count,
	}, nil)
}

func (c *Controller) finish(out Outcome, n Notification, err error) Outcome {
	out.Err = err
	out.Notification = &n
	out.Trace = append(out.Trace, StateNotified, StateIdle)
	c.notify.Notify(n)
	return out
}

// Link sanitizes and encodes p and returns the share link. It fails with
// share.ErrPayloadTooLarge when the link is over the bound.
func (c *Controller) Link(p share.Payload) (string, error) {
	token, err := share.Encode(share.Sanitize(p))
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", p.Kind(), err)
	}
	return c.guard.BuildLink(c.baseURL, p.Kind(), token)
}

// Share builds the link for p and dispatches it in a single attempt. An
// oversized link is reported and never dispatched. A cancelled share is not
// an error. Collections are never modified.
func (c *Controller) Share(ctx context.Context, p share.Payload) error {
	link, err := c.Link(p)
	if errors.Is(err, share.ErrPayloadTooLarge) {
		c.log.Info("share link too large", "kind", p.Kind(), "error", err)
		c.notify.Notify(Notification{Level: LevelError, Message: MessageTooLarge, Kind: p.Kind()})
		return err
	}
	if err != nil {
		c.notify.Notify(Notification{Level: LevelError, Message: msgShareFailed, Kind: p.Kind()})
		return err
	}
	if c.dispatch == nil {
		c.notify.Notify(Notification{Level: LevelError, Message: msgShareFailed, Kind: p.Kind()})
		return &share.DispatchError{Method: "none", Err: errors.New("no dispatcher configured")}
	}

	method, err := c.dispatch.Dispatch(ctx, dispatch.Message{Title: shareTitle, Text: shareText(p.Kind()), URL: link})
	switch {
	case errors.Is(err, share.ErrDispatchAborted):
		c.log.Debug("share cancelled", "kind", p.Kind())
		return nil
	case err != nil:
		c.log.Warn("share failed", "kind", p.Kind(), "method", method, "error", err)
		c.notify.Notify(Notification{Level: LevelError, Message: msgShareFailed, Kind: p.Kind()})
		if !errors.Is(err, share.ErrDispatchFailed) {
			err = &share.DispatchError{Method: string(method), Err: err}
		}
		return err
	}

	c.log.Info("share dispatched", "kind", p.Kind(), "method", method, "length", len(link))
	if method == dispatch.MethodClipboard {
		c.notify.Notify(Notification{Level: LevelSuccess, Message: msgLinkCopied, Kind: p.Kind(), Count: p.Len()})
	}
	return nil
}

// Resolve builds a payload from the collections. key is a workout ID for
// single-session, a YYYY-MM-DD date for day-batch, and a template ID for
// blueprint.
func Resolve(cols models.Collections, kind share.Kind, key string) (share.Payload, error) {
	switch kind {
	case share.KindSingleSession:
		w, ok := models.FindWorkout(cols.Workouts, key)
		if !ok {
			return nil, fmt.Errorf("session %q: %w", key, ErrNotFound)
		}
		return share.SingleSession{Workout: w}, nil
	case share.KindDayBatch:
		day := models.SessionsOn(cols.Workouts, key)
		if len(day) == 0 {
			return nil, fmt.Errorf("no sessions on %s: %w", key, ErrNothingToShare)
		}
		return share.DayBatch{Workouts: day}, nil
	case share.KindBlueprint:
		t, ok := models.FindTemplate(cols.Templates, key)
		if !ok {
			return nil, fmt.Errorf("blueprint %q: %w", key, ErrNotFound)
		}
		return share.Blueprint{Templates: []models.Template{t}}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// ShareRecord resolves kind/key against target and shares it.
func (c *Controller) ShareRecord(ctx context.Context, target Target, kind share.Kind, key string) error {
	p, err := Resolve(target.Snapshot(), kind, key)
	if err != nil {
		return err
	}
	return c.Share(ctx, p)
}

// ShareSession shares one scheduled workout.
func (c *Controller) ShareSession(ctx context.Context, target Target, id string) error {
	return c.ShareRecord(ctx, target, share.KindSingleSession, id)
}

// ShareDay shares every workout on date, ordered by time slot.
func (c *Controller) ShareDay(ctx context.Context, target Target, date string) error {
	return c.ShareRecord(ctx, target, share.KindDayBatch, date)
}

// ShareBlueprint shares one template.
func (c *Controller) ShareBlueprint(ctx context.Context, target Target, id string) error {
	return c.ShareRecord(ctx, target, share.KindBlueprint, id)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf(one, n)
	}
	return fmt.Sprintf(many, n)
}
