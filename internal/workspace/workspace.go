// Package workspace owns a coach's in-memory collections, serializes every
// mutation, and persists each collection after it changes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/wodlink/internal/ident"
	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/storage"
)

var (
	// ErrNotFound reports an unknown record ID.
	ErrNotFound = errors.New("workspace: not found")
	// ErrInvalid reports a record field that cannot be accepted.
	ErrInvalid = errors.New("workspace: invalid record")
)

// Workspace holds the collections and the selected calendar date.
type Workspace struct {
	mu    sync.Mutex
	cols  models.Collections
	focus string

	store storage.Store
	ns    string
	newID ident.Generator
	log   *slog.Logger
	now   func() time.Time
}

// Open loads all three collections from store. Missing keys start empty.
func Open(ctx context.Context, store storage.Store, namespace string, log *slog.Logger) (*Workspace, error) {
	ws := &Workspace{
		store: store,
		ns:    namespace,
		newID: ident.New,
		log:   log,
		now:   time.Now,
	}
	if err := load(ctx, store, storage.Key(namespace, storage.CollectionWorkouts), &ws.cols.Workouts); err != nil {
		return nil, err
	}
	if err := load(ctx, store, storage.Key(namespace, storage.CollectionTemplates), &ws.cols.Templates); err != nil {
		return nil, err
	}
	if err := load(ctx, store, storage.Key(namespace, storage.CollectionLibrary), &ws.cols.Library); err != nil {
		return nil, err
	}
	ws.cols.Normalize()
	ws.focus = ws.now().Format(models.DateLayout)

	log.Info("workspace loaded",
		"workouts", len(ws.cols.Workouts),
		"templates", len(ws.cols.Templates),
		"exercises", len(ws.cols.Library),
	)
	return ws, nil
}

func load(ctx context.Context, store storage.Store, key string, v any) error {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := share.UnmarshalCanonical(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}

// SetIDGenerator replaces the identifier source.
func (ws *Workspace) SetIDGenerator(g ident.Generator) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.newID = g
}

// Snapshot returns a copy of the collections. Records share no slices with
// the workspace.
func (ws *Workspace) Snapshot() models.Collections {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return copyCollections(ws.cols)
}

func copyCollections(c models.Collections) models.Collections {
	out := models.Collections{
		Workouts:  make([]models.Workout, len(c.Workouts)),
		Templates: make([]models.Template, len(c.Templates)),
		Library:   append([]models.LibraryExercise{}, c.Library...),
	}
	for i, w := range c.Workouts {
		out.Workouts[i] = w.Clone()
	}
	for i, t := range c.Templates {
		out.Templates[i] = t.Clone()
	}
	return out
}

// Focus returns the selected calendar date (YYYY-MM-DD).
func (ws *Workspace) Focus() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.focus
}

// SetFocus selects a calendar date.
func (ws *Workspace) SetFocus(date string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.focus = date
}

// Update runs fn against a copy of the collections under the workspace lock.
// The copy replaces the live state only if fn succeeds, so a failed update is
// never partially visible. Every collection is then persisted.
func (ws *Workspace) Update(ctx context.Context, fn func(c *models.Collections) error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	next := copyCollections(ws.cols)
	if err := fn(&next); err != nil {
		return err
	}
	next.Normalize()
	ws.cols = next
	ws.persist(ctx, storage.Collections...)
	return nil
}

// persist writes the named collections. Failures are logged; the in-memory
// state stays authoritative. Caller holds ws.mu.
func (ws *Workspace) persist(ctx context.Context, which ...storage.Collection) {
	for _, c := range which {
		var v any
		switch c {
		case storage.CollectionWorkouts:
			v = ws.cols.Workouts
		case storage.CollectionTemplates:
			v = ws.cols.Templates
		case storage.CollectionLibrary:
			v = ws.cols.Library
		}
		key := storage.Key(ws.ns, c)
		data, err := share.MarshalCanonical(v)
		if err != nil {
			ws.log.Error("serializing collection failed", "key", key, "error", err)
			continue
		}
		if err := ws.store.Put(ctx, key, data); err != nil {
			ws.log.Error("persisting collection failed", "key", key, "error", err)
		}
	}
}

// mutate applies fn under the lock and persists only the named collection.
func (ws *Workspace) mutate(ctx context.Context, which storage.Collection, fn func(c *models.Collections) error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	next := copyCollections(ws.cols)
	if err := fn(&next); err != nil {
		return err
	}
	next.Normalize()
	ws.cols = next
	ws.persist(ctx, which)
	return nil
}
