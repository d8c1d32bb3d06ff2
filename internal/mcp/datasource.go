package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

// ErrNoPayload reports a link without a wod, day or blueprint parameter.
var ErrNoPayload = errors.New("link carries no shared payload")

// DataSource abstracts the workspace for MCP tools. Both Local and
// HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	// Sessions returns the workouts on date, or all workouts when date is empty.
	Sessions(ctx context.Context, date string) ([]models.Workout, error)
	Blueprints(ctx context.Context) ([]models.Template, error)
	ShareLink(ctx context.Context, kind share.Kind, key string) (string, error)
	ImportLink(ctx context.Context, link string) (*teamsync.Notification, error)
}

// Local serves tools from an in-process workspace.
type Local struct {
	ws   *workspace.Workspace
	sync *teamsync.Controller
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource over ws.
func NewLocal(ws *workspace.Workspace, sync *teamsync.Controller) *Local {
	return &Local{ws: ws, sync: sync}
}

func (l *Local) Sessions(_ context.Context, date string) ([]models.Workout, error) {
	workouts := l.ws.Snapshot().Workouts
	if date != "" {
		workouts = models.SessionsOn(workouts, date)
	}
	return workouts, nil
}

func (l *Local) Blueprints(_ context.Context) ([]models.Template, error) {
	return l.ws.Snapshot().Templates, nil
}

func (l *Local) ShareLink(_ context.Context, kind share.Kind, key string) (string, error) {
	p, err := teamsync.Resolve(l.ws.Snapshot(), kind, key)
	if err != nil {
		return "", err
	}
	return l.sync.Link(p)
}

func (l *Local) ImportLink(ctx context.Context, link string) (*teamsync.Notification, error) {
	in, err := teamsync.ParseLink(link)
	if err != nil {
		return nil, err
	}
	out := l.sync.Receive(ctx, l.ws, in)
	if out.Notification == nil {
		return nil, ErrNoPayload
	}
	if out.Err != nil {
		return out.Notification, fmt.Errorf("%s: %w", out.Notification.Message, out.Err)
	}
	return out.Notification, nil
}
