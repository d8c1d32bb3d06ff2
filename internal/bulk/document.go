// Package bulk moves whole collections in and out as JSON files: the master
// export, the blueprint library file, and an inbox directory that ingests
// dropped files. Bulk files never pass through the link size guard.
package bulk

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
)

// Default file names for downloads.
const (
	MasterFile    = "OTB_MASTER_EXPORT.json"
	BlueprintFile = "OTB_BLUEPRINTS.json"
)

// Format identifies the shape of a bulk file.
type Format string

const (
	// FormatMaster is an object with workouts, templates and lib arrays.
	FormatMaster Format = "master"
	// FormatBlueprints is a bare array of templates.
	FormatBlueprints Format = "blueprints"
)

// ErrUnknownFormat reports a file that is neither a master object nor a
// blueprint array.
var ErrUnknownFormat = errors.New("bulk: unrecognized file format")

// Document is a parsed bulk file. In a master document a nil collection was
// absent from the file and is left untouched on apply.
type Document struct {
	Format    Format
	Workouts  []models.Workout
	Templates []models.Template
	Library   []models.LibraryExercise
}

type master struct {
	Workouts  *[]models.Workout         `json:"workouts"`
	Templates *[]models.Template        `json:"templates"`
	Library   *[]models.LibraryExercise `json:"lib"`
}

// ExportMaster serializes every collection as a master file.
func ExportMaster(cols models.Collections) ([]byte, error) {
	cols = copyNormalized(cols)
	return share.MarshalCanonical(cols)
}

// ExportBlueprints serializes the template library as a blueprint file.
func ExportBlueprints(templates []models.Template) ([]byte, error) {
	cols := copyNormalized(models.Collections{Templates: templates})
	return share.MarshalCanonical(cols.Templates)
}

func copyNormalized(c models.Collections) models.Collections {
	out := models.Collections{Library: c.Library}
	for _, w := range c.Workouts {
		out.Workouts = append(out.Workouts, w.Clone())
	}
	for _, t := range c.Templates {
		out.Templates = append(out.Templates, t.Clone())
	}
	out.Normalize()
	return out
}

// Parse reads a bulk file of either format.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrUnknownFormat
	}
	switch trimmed[0] {
	case '[':
		var templates []models.Template
		if err := share.UnmarshalCanonical(trimmed, &templates); err != nil {
			return nil, fmt.Errorf("parsing blueprint file: %w", err)
		}
		return &Document{Format: FormatBlueprints, Templates: templates}, nil
	case '{':
		var m master
		if err := share.UnmarshalCanonical(trimmed, &m); err != nil {
			return nil, fmt.Errorf("parsing master file: %w", err)
		}
		if m.Workouts == nil && m.Templates == nil && m.Library == nil {
			return nil, ErrUnknownFormat
		}
		doc := &Document{Format: FormatMaster}
		if m.Workouts != nil {
			doc.Workouts = nonNil(*m.Workouts)
		}
		if m.Templates != nil {
			doc.Templates = nonNil(*m.Templates)
		}
		if m.Library != nil {
			doc.Library = nonNil(*m.Library)
		}
		return doc, nil
	default:
		return nil, ErrUnknownFormat
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Counts summarizes what applying a document changed.
type Counts struct {
	Workouts  int
	Templates int
	Exercises int
	// Replaced counts templates from a blueprint file that overwrote an
	// existing template with the same ID.
	Replaced int
}

// Apply merges the document into c. Master collections present in the file
// replace the local ones; a blueprint file is reconciled into templates.
// Records without an ID get one from newID, as do exercises whose ID is
// missing or repeated within their record. Duplicate record IDs collapse to
// the last occurrence.
func (d *Document) Apply(c *models.Collections, newID func() string) Counts {
	var n Counts
	switch d.Format {
	case FormatBlueprints:
		incoming := templatesWithIDs(d.Templates, newID)
		n.Replaced = share.Overlap(c.Templates, incoming)
		c.Templates = share.Reconcile(c.Templates, incoming)
		n.Templates = len(share.Reconcile(nil, incoming))
	case FormatMaster:
		if d.Workouts != nil {
			c.Workouts = share.Reconcile(nil, workoutsWithIDs(d.Workouts, newID))
			n.Workouts = len(c.Workouts)
		}
		if d.Templates != nil {
			c.Templates = share.Reconcile(nil, templatesWithIDs(d.Templates, newID))
			n.Templates = len(c.Templates)
		}
		if d.Library != nil {
			lib := make([]models.LibraryExercise, len(d.Library))
			for i, e := range d.Library {
				if e.ID == "" {
					e.ID = newID()
				}
				if cat, ok := models.ParseCategory(string(e.Category)); ok {
					e.Category = cat
				}
				lib[i] = e
			}
			c.Library = share.Reconcile(nil, lib)
			n.Exercises = len(c.Library)
		}
	}
	c.Normalize()
	return n
}

func workoutsWithIDs(records []models.Workout, newID func() string) []models.Workout {
	out := make([]models.Workout, len(records))
	for i, w := range records {
		out[i] = w.Clone()
		fixIDs(&out[i].Template, newID)
	}
	return out
}

func templatesWithIDs(records []models.Template, newID func() string) []models.Template {
	out := make([]models.Template, len(records))
	for i, t := range records {
		out[i] = t.Clone()
		fixIDs(&out[i], newID)
	}
	return out
}

// fixIDs gives the record an ID if missing, and a fresh ID to every exercise
// whose ID is empty or already used earlier in the record. Hand-edited files
// often copy exercises between phases without changing the ID.
func fixIDs(t *models.Template, newID func() string) {
	if t.ID == "" {
		t.ID = newID()
	}
	seen := make(map[string]bool, t.ExerciseCount())
	for _, p := range models.Phases {
		ex := *t.Phase(p)
		for i := range ex {
			for ex[i].ID == "" || seen[ex[i].ID] {
				ex[i].ID = newID()
			}
			seen[ex[i].ID] = true
		}
	}
}
