package models

import "sort"

// Collections is the full local state: three independent ordered sequences,
// each keyed by ID.
type Collections struct {
	Workouts  []Workout         `json:"workouts"`
	Templates []Template        `json:"templates"`
	Library   []LibraryExercise `json:"lib"`
}

// Normalize replaces nil sequences and nil phases with empty ones.
func (c *Collections) Normalize() {
	if c.Workouts == nil {
		c.Workouts = []Workout{}
	}
	if c.Templates == nil {
		c.Templates = []Template{}
	}
	if c.Library == nil {
		c.Library = []LibraryExercise{}
	}
	for i := range c.Workouts {
		c.Workouts[i].Normalize()
	}
	for i := range c.Templates {
		c.Templates[i].Normalize()
	}
}

// SessionsOn returns the workouts scheduled on date (YYYY-MM-DD), ordered by
// time slot.
func SessionsOn(workouts []Workout, date string) []Workout {
	var out []Workout
	for _, w := range workouts {
		if w.Date == date {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out
}

// FindWorkout returns the workout with the given ID.
func FindWorkout(workouts []Workout, id string) (Workout, bool) {
	for _, w := range workouts {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}

// FindTemplate returns the template with the given ID.
func FindTemplate(templates []Template, id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
