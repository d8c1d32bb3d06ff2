// Package share turns workouts and blueprints into link-sized tokens and
// back, and merges received records into local collections.
package share

import "github.com/meltforce/wodlink/internal/models"

// Kind tags what a payload carries and which collection it merges into.
type Kind string

// Payload kinds.
const (
	KindSingleSession Kind = "single-session"
	KindDayBatch      Kind = "day-batch"
	KindBlueprint     Kind = "blueprint"
)

// Kinds lists every kind in inbound lookup precedence.
var Kinds = []Kind{KindSingleSession, KindDayBatch, KindBlueprint}

// Param returns the query parameter that carries a token of this kind.
func (k Kind) Param() string {
	switch k {
	case KindSingleSession:
		return "wod"
	case KindDayBatch:
		return "day"
	case KindBlueprint:
		return "blueprint"
	default:
		return ""
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k.Param() != "" }

// Payload is one of SingleSession, DayBatch or Blueprint.
type Payload interface {
	Kind() Kind
	// Len is the number of records carried.
	Len() int
	isPayload()
}

// SingleSession carries one scheduled workout.
type SingleSession struct {
	Workout models.Workout
}

// DayBatch carries the sessions of one day, ordered by time slot.
type DayBatch struct {
	Workouts []models.Workout
}

// Blueprint carries one or more templates.
type Blueprint struct {
	Templates []models.Template
}

func (SingleSession) Kind() Kind { return KindSingleSession }
func (DayBatch) Kind() Kind      { return KindDayBatch }
func (Blueprint) Kind() Kind     { return KindBlueprint }

func (SingleSession) Len() int { return 1 }
func (p DayBatch) Len() int    { return len(p.Workouts) }
func (p Blueprint) Len() int   { return len(p.Templates) }

func (SingleSession) isPayload() {}
func (DayBatch) isPayload()      {}
func (Blueprint) isPayload()     {}

// IncomingWorkouts returns the workouts a payload carries, or nil for a
// blueprint.
func IncomingWorkouts(p Payload) []models.Workout {
	switch v := p.(type) {
	case SingleSession:
		return []models.Workout{v.Workout}
	case DayBatch:
		return v.Workouts
	default:
		return nil
	}
}
