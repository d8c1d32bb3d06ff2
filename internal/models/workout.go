package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by workouts.
const DateLayout = "2006-01-02"

// DefaultTimeSlot is the slot given to sessions scheduled from a blueprint.
const DefaultTimeSlot = "06:00"

// Phase names one of the five fixed sections of a session.
type Phase string

// Session phases, in display order.
const (
	PhaseWarmup   Phase = "warmup"
	PhaseWOD1     Phase = "wod1"
	PhaseWOD2     Phase = "wod2"
	PhaseFinisher Phase = "finisher"
	PhaseCooldown Phase = "cooldown"
)

// Phases lists every phase in display order.
var Phases = []Phase{PhaseWarmup, PhaseWOD1, PhaseWOD2, PhaseFinisher, PhaseCooldown}

// Template is a reusable session blueprint, not tied to a calendar date.
// All five phase slices are serialized even when empty.
type Template struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Warmup     []Exercise `json:"warmup"`
	WOD1       []Exercise `json:"wod1"`
	WOD2       []Exercise `json:"wod2"`
	Finisher   []Exercise `json:"finisher"`
	Cooldown   []Exercise `json:"cooldown"`
	CoachNotes string     `json:"coachNotes,omitempty"`
}

// Identity returns the template ID.
func (t Template) Identity() string { return t.ID }

// Phase returns a pointer to the exercise slice for p, or nil for an unknown
// phase.
func (t *Template) Phase(p Phase) *[]Exercise {
	switch p {
	case PhaseWarmup:
		return &t.Warmup
	case PhaseWOD1:
		return &t.WOD1
	case PhaseWOD2:
		return &t.WOD2
	case PhaseFinisher:
		return &t.Finisher
	case PhaseCooldown:
		return &t.Cooldown
	default:
		return nil
	}
}

// Normalize replaces nil phases with empty slices so every phase key is
// present when serialized.
func (t *Template) Normalize() {
	for _, p := range Phases {
		if ex := t.Phase(p); *ex == nil {
			*ex = []Exercise{}
		}
	}
}

// ExerciseCount returns the number of exercises across all phases.
func (t Template) ExerciseCount() int {
	return len(t.Warmup) + len(t.WOD1) + len(t.WOD2) + len(t.Finisher) + len(t.Cooldown)
}

// DuplicateExerciseID returns the first exercise ID used more than once
// across the phases.
func (t Template) DuplicateExerciseID() (string, bool) {
	seen := make(map[string]bool, t.ExerciseCount())
	for _, p := range Phases {
		for _, e := range *t.Phase(p) {
			if seen[e.ID] {
				return e.ID, true
			}
			seen[e.ID] = true
		}
	}
	return "", false
}

// Workout is a Template scheduled on a date and time slot. Month, Week and
// Day are derived once when the workout is created and are not recomputed
// when Date changes.
type Workout struct {
	Template
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Month    string `json:"month"`
	Week     int    `json:"week"`
	Day      string `json:"day"`
}

// Schedule creates a workout from a blueprint on the given date with a new ID.
// Phases are deep copied.
func Schedule(t Template, id string, date time.Time, slot string) Workout {
	if slot == "" {
		slot = DefaultTimeSlot
	}
	w := Workout{
		Template: t.Clone(),
		Date:     date.Format(DateLayout),
		TimeSlot: slot,
	}
	w.ID = id
	w.SetDisplayFields(date)
	return w
}

// SetDisplayFields derives the month name, ISO week and weekday from date.
func (w *Workout) SetDisplayFields(date time.Time) {
	_, week := date.ISOWeek()
	w.Month = date.Month().String()
	w.Week = week
	w.Day = date.Weekday().String()
}

// ParseDate parses the workout date.
func (w Workout) ParseDate() (time.Time, error) {
	d, err := time.Parse(DateLayout, w.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing workout date %q: %w", w.Date, err)
	}
	return d, nil
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	c := t
	for _, p := range Phases {
		src := t.Phase(p)
		dst := make([]Exercise, len(*src))
		copy(dst, *src)
		*c.Phase(p) = dst
	}
	return c
}

// Clone returns a deep copy of the workout.
func (w Workout) Clone() Workout {
	c := w
	c.Template = w.Template.Clone()
	return c
}
