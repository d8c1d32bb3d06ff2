package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/meltforce/wodlink/internal/ident"
	"github.com/meltforce/wodlink/internal/models"
)

// Target receives imported collections atomically.
type Target interface {
	Update(ctx context.Context, fn func(c *models.Collections) error) error
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsImported  int
	TemplatesImported int
	TemplatesReplaced int
	ExercisesImported int
	BytesRead         int64
}

// Importer reads bulk files and applies them to a target.
type Importer struct {
	target Target
	log    *slog.Logger
	dryRun bool
	newID  ident.Generator
	stats  Stats
}

// New creates a new Importer. In dry-run mode files are parsed and counted
// but the target is never updated.
func New(target Target, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{target: target, log: log, dryRun: dryRun, newID: ident.New}
}

// Stats returns the counters accumulated so far.
func (imp *Importer) Stats() Stats { return imp.stats }

// ImportFile reads and applies one bulk file.
func (imp *Importer) ImportFile(ctx context.Context, path string) (Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		imp.stats.FilesErrored++
		return Counts{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return imp.Import(ctx, filepath.Base(path), data)
}

// Import parses data and applies it to the target in one update.
func (imp *Importer) Import(ctx context.Context, name string, data []byte) (Counts, error) {
	doc, err := Parse(data)
	if err != nil {
		imp.stats.FilesErrored++
		return Counts{}, fmt.Errorf("importing %s: %w", name, err)
	}

	var n Counts
	apply := func(c *models.Collections) error {
		n = doc.Apply(c, imp.newID)
		return nil
	}
	if imp.dryRun {
		var scratch models.Collections
		_ = apply(&scratch)
	} else if err := imp.target.Update(ctx, apply); err != nil {
		imp.stats.FilesErrored++
		return Counts{}, fmt.Errorf("applying %s: %w", name, err)
	}

	imp.stats.FilesProcessed++
	imp.stats.BytesRead += int64(len(data))
	imp.stats.WorkoutsImported += n.Workouts
	imp.stats.TemplatesImported += n.Templates
	imp.stats.TemplatesReplaced += n.Replaced
	imp.stats.ExercisesImported += n.Exercises

	imp.log.Info("bulk file imported",
		"file", name,
		"format", doc.Format,
		"size", humanize.Bytes(uint64(len(data))),
		"workouts", n.Workouts,
		"templates", n.Templates,
		"exercises", n.Exercises,
		"dry_run", imp.dryRun,
	)
	return n, nil
}

// ImportDir imports every bulk file in dir in name order. Hidden files are
// counted as skipped. A bad file is logged and counted, and the rest continue.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if e.IsDir() || !hasJSONExt(e.Name()) {
			continue
		}
		if !IsBulkFile(e.Name()) {
			imp.stats.FilesSkipped++
			continue
		}
		f := filepath.Join(dir, e.Name())
		if _, err := imp.ImportFile(ctx, f); err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
		}
	}
	return &imp.stats, nil
}

// IsBulkFile reports whether path names an importable file: not hidden, with
// a .json extension in any letter case. Directory imports, the inbox and
// remote pushes all select files with it.
func IsBulkFile(path string) bool {
	base := filepath.Base(path)
	return hasJSONExt(base) && !strings.HasPrefix(base, ".")
}

func hasJSONExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
