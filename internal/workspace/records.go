package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/storage"
)

// assignIDs gives the record and each of its exercises an ID if missing.
// Exercise IDs repeated within the record are rejected; a shared link
// carrying them could not be received.
func (ws *Workspace) assignIDs(t *models.Template) error {
	if t.ID == "" {
		t.ID = ws.newID()
	}
	t.Normalize()
	for _, p := range models.Phases {
		ex := *t.Phase(p)
		for i := range ex {
			if ex[i].ID == "" {
				ex[i].ID = ws.newID()
			}
		}
	}
	if id, dup := t.DuplicateExerciseID(); dup {
		return fmt.Errorf("%w: exercise id %q used twice in %q", ErrInvalid, id, t.Name)
	}
	return nil
}

// SaveWorkout inserts w or replaces the workout with the same ID. A workout
// without an ID is new and gets one; its display fields are derived from its
// date. Display fields of an existing workout are kept as given.
func (ws *Workspace) SaveWorkout(ctx context.Context, w models.Workout) (models.Workout, error) {
	w = w.Clone()
	isNew := w.ID == ""
	if w.TimeSlot == "" {
		w.TimeSlot = models.DefaultTimeSlot
	}
	if isNew && w.Date != "" {
		d, err := w.ParseDate()
		if err != nil {
			return models.Workout{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		w.SetDisplayFields(d)
	}
	err := ws.mutate(ctx, storage.CollectionWorkouts, func(c *models.Collections) error {
		if err := ws.assignIDs(&w.Template); err != nil {
			return err
		}
		c.Workouts = share.Reconcile(c.Workouts, []models.Workout{w})
		return nil
	})
	return w, err
}

// DeleteWorkout removes a workout.
func (ws *Workspace) DeleteWorkout(ctx context.Context, id string) error {
	return ws.mutate(ctx, storage.CollectionWorkouts, func(c *models.Collections) error {
		out, ok := share.Remove(c.Workouts, id)
		if !ok {
			return fmt.Errorf("workout %q: %w", id, ErrNotFound)
		}
		c.Workouts = out
		return nil
	})
}

// CloneWorkout appends a copy of a workout under a new ID.
func (ws *Workspace) CloneWorkout(ctx context.Context, id string) (models.Workout, error) {
	var clone models.Workout
	err := ws.mutate(ctx, storage.CollectionWorkouts, func(c *models.Collections) error {
		w, ok := models.FindWorkout(c.Workouts, id)
		if !ok {
			return fmt.Errorf("workout %q: %w", id, ErrNotFound)
		}
		clone = w.Clone()
		clone.ID = ws.newID()
		c.Workouts = append(c.Workouts, clone)
		return nil
	})
	return clone, err
}

// SaveAsBlueprint copies a workout's content into a new template.
func (ws *Workspace) SaveAsBlueprint(ctx context.Context, workoutID string) (models.Template, error) {
	var tpl models.Template
	err := ws.mutate(ctx, storage.CollectionTemplates, func(c *models.Collections) error {
		w, ok := models.FindWorkout(c.Workouts, workoutID)
		if !ok {
			return fmt.Errorf("workout %q: %w", workoutID, ErrNotFound)
		}
		tpl = w.Template.Clone()
		tpl.ID = ws.newID()
		c.Templates = append(c.Templates, tpl)
		return nil
	})
	return tpl, err
}

// SaveTemplate inserts t or replaces the template with the same ID.
func (ws *Workspace) SaveTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	t = t.Clone()
	err := ws.mutate(ctx, storage.CollectionTemplates, func(c *models.Collections) error {
		if err := ws.assignIDs(&t); err != nil {
			return err
		}
		c.Templates = share.Reconcile(c.Templates, []models.Template{t})
		return nil
	})
	return t, err
}

// DeleteTemplate removes a template.
func (ws *Workspace) DeleteTemplate(ctx context.Context, id string) error {
	return ws.mutate(ctx, storage.CollectionTemplates, func(c *models.Collections) error {
		out, ok := share.Remove(c.Templates, id)
		if !ok {
			return fmt.Errorf("template %q: %w", id, ErrNotFound)
		}
		c.Templates = out
		return nil
	})
}

// ScheduleTemplate creates a workout from a template on date (YYYY-MM-DD).
// An empty date uses the selected calendar date; an empty slot uses 06:00.
func (ws *Workspace) ScheduleTemplate(ctx context.Context, templateID, date, slot string) (models.Workout, error) {
	if date == "" {
		date = ws.Focus()
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.Workout{}, fmt.Errorf("%w: parsing date %q: %w", ErrInvalid, date, err)
	}

	var w models.Workout
	err = ws.mutate(ctx, storage.CollectionWorkouts, func(c *models.Collections) error {
		t, ok := models.FindTemplate(c.Templates, templateID)
		if !ok {
			return fmt.Errorf("template %q: %w", templateID, ErrNotFound)
		}
		w = models.Schedule(t, ws.newID(), d, slot)
		c.Workouts = append(c.Workouts, w)
		return nil
	})
	return w, err
}

// SaveExercise inserts or replaces a library exercise. Unknown categories
// are rejected.
func (ws *Workspace) SaveExercise(ctx context.Context, e models.LibraryExercise) (models.LibraryExercise, error) {
	cat, ok := models.ParseCategory(string(e.Category))
	if !ok {
		return models.LibraryExercise{}, fmt.Errorf("%w: unknown category %q", ErrInvalid, e.Category)
	}
	e.Category = cat
	err := ws.mutate(ctx, storage.CollectionLibrary, func(c *models.Collections) error {
		if e.ID == "" {
			e.ID = ws.newID()
		}
		c.Library = share.Reconcile(c.Library, []models.LibraryExercise{e})
		return nil
	})
	return e, err
}

// DeleteExercise removes a library exercise.
func (ws *Workspace) DeleteExercise(ctx context.Context, id string) error {
	return ws.mutate(ctx, storage.CollectionLibrary, func(c *models.Collections) error {
		out, ok := share.Remove(c.Library, id)
		if !ok {
			return fmt.Errorf("exercise %q: %w", id, ErrNotFound)
		}
		c.Library = out
		return nil
	})
}
