package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Subdirectories of the inbox that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// DefaultSettle is how long a file must go without writes before it is
// imported.
const DefaultSettle = 500 * time.Millisecond

// Inbox imports bulk files dropped into a directory. Each file is moved to
// processed/ or failed/ once handled.
type Inbox struct {
	dir    string
	imp    *Importer
	log    *slog.Logger
	Settle time.Duration
}

// NewInbox creates the inbox directories if needed.
func NewInbox(dir string, imp *Importer, log *slog.Logger) (*Inbox, error) {
	for _, d := range []string{dir, filepath.Join(dir, ProcessedDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating inbox directory %s: %w", d, err)
		}
	}
	return &Inbox{dir: dir, imp: imp, log: log, Settle: DefaultSettle}, nil
}

// Run imports files already present, then watches for new ones until ctx is
// done.
func (in *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("failed to watch inbox %s: %w", in.dir, err)
	}

	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if p := filepath.Join(in.dir, e.Name()); !e.IsDir() && IsBulkFile(p) {
			in.handle(ctx, p)
		}
	}
	in.log.Info("inbox watching", "dir", in.dir)

	settle := in.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	// pending holds the last write time of files not yet imported.
	pending := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsBulkFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.log.Warn("inbox watcher error", "error", err)

		case now := <-ticker.C:
			for p, last := range pending {
				if now.Sub(last) >= settle {
					delete(pending, p)
					in.handle(ctx, p)
				}
			}
		}
	}
}

func (in *Inbox) handle(ctx context.Context, path string) {
	dest := ProcessedDir
	if _, err := in.imp.ImportFile(ctx, path); err != nil {
		in.log.Warn("inbox import failed", "file", path, "error", err)
		dest = FailedDir
	}
	target := filepath.Join(in.dir, dest, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		in.log.Error("moving inbox file", "file", path, "error", err)
	}
}
