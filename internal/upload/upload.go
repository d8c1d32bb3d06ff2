package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/meltforce/wodlink/internal/bulk"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsSent  int
	TemplatesSent int
	ExercisesSent int
	BytesSent     int64
}

// Uploader pushes bulk JSON files to a remote wodlink server.
type Uploader struct {
	client *Client
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. state may be nil, in which case every file is
// sent. In dry-run mode the server parses and counts files without applying
// them, and nothing is recorded in state.
func New(client *Client, state *StateDB, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{client: client, state: state, dryRun: dryRun, log: log}
}

// Run pushes path, which is either one file or a directory of *.json files.
// A file the server rejects is counted and skipped; an unreachable server
// aborts the run.
func (u *Uploader) Run(ctx context.Context, path string) (*Stats, error) {
	files, base, err := collect(path)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.push(ctx, f, base); err != nil {
			if errors.Is(err, ErrRejected) {
				u.stats.FilesErrored++
				u.log.Warn("file rejected", "file", f, "error", err)
				continue
			}
			u.stats.FilesErrored++
			return &u.stats, fmt.Errorf("pushing %s: %w", f, err)
		}
	}
	return &u.stats, nil
}

func (u *Uploader) push(ctx context.Context, file, base string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	size, hash := int64(len(data)), Hash(data)

	if u.state != nil && !u.dryRun {
		done, err := u.state.IsPushed(u.client.serverURL, rel, size, hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			u.stats.FilesSkipped++
			u.log.Debug("unchanged, skipping", "file", rel)
			return nil
		}
	}

	res, err := u.client.SendFile(ctx, data, u.dryRun)
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.BytesSent += size
	u.stats.WorkoutsSent += res.Workouts
	u.stats.TemplatesSent += res.Templates
	u.stats.ExercisesSent += res.Exercises
	u.log.Info("file pushed", "file", rel, "size", humanize.Bytes(uint64(size)),
		"workouts", res.Workouts, "templates", res.Templates, "exercises", res.Exercises)

	if u.state != nil && !u.dryRun {
		if err := u.state.MarkPushed(u.client.serverURL, rel, size, hash); err != nil {
			return fmt.Errorf("recording state: %w", err)
		}
	}
	return nil
}

// collect lists the bulk files under path in name order.
func collect(path string) ([]string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		return []string{path}, filepath.Dir(path), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !bulk.IsBulkFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, path, nil
}
