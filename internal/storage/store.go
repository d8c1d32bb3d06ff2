// Package storage persists the three collections as independent values keyed
// by a process-wide namespace.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Collection names one persisted collection.
type Collection string

// Persisted collections.
const (
	CollectionWorkouts  Collection = "workouts"
	CollectionTemplates Collection = "templates"
	CollectionLibrary   Collection = "lib"
)

// Collections lists every persisted collection.
var Collections = []Collection{CollectionWorkouts, CollectionTemplates, CollectionLibrary}

// DefaultNamespace prefixes every key when none is configured.
const DefaultNamespace = "otb"

// Key returns the storage key of c under namespace ns.
func Key(ns string, c Collection) string {
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + "_" + string(c)
}

// ErrUnknownDriver reports an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Store is a key/value store for serialized collections.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and configures a store.
type Options struct {
	Driver string // "sqlite" (default), "postgres" or "memory"
	Path   string // SQLite directory
	DSN    string // PostgreSQL connection string
}

// Open opens the configured store. PostgreSQL migrations are applied first.
func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		s, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", "path", s.Path())
		return s, nil
	case "postgres":
		if err := RunMigrations(opts.DSN); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		db, err := New(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("database connected")
		return db, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

// Memory is an in-process Store, used for dry runs and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }
