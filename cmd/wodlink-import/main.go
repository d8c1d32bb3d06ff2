package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/meltforce/wodlink/internal/bulk"
	"github.com/meltforce/wodlink/internal/config"
	"github.com/meltforce/wodlink/internal/logging"
	"github.com/meltforce/wodlink/internal/storage"
	"github.com/meltforce/wodlink/internal/upload"
	"github.com/meltforce/wodlink/internal/workspace"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and WODLINK_* env when empty)")
	path := flag.String("path", "", "bulk JSON file or directory of files to import")
	export := flag.Bool("export", false, "write OTB_MASTER_EXPORT.json and OTB_BLUEPRINTS.json instead of importing")
	toS3 := flag.Bool("s3", false, "with -export, write to the configured S3 bucket")
	dryRun := flag.Bool("dry-run", false, "report counts without changing the workspace")
	serverURL := flag.String("server", "", "push -path to a remote wodlink server instead of the local workspace")
	apiKey := flag.String("api-key", os.Getenv("WODLINK_API_KEY"), "API key for -server")
	stateDir := flag.String("state-dir", "", "with -server, remember pushed files here and skip unchanged ones")
	flag.Parse()

	if *path == "" && !*export {
		fmt.Fprintf(os.Stderr, "Usage: wodlink-import [-config config.yaml] (-path FILE|DIR [-dry-run] [-server URL] | -export [-s3])\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx := context.Background()

	if *serverURL != "" {
		if err := runPush(ctx, *serverURL, *apiKey, *stateDir, *path, *dryRun, log); err != nil {
			log.Error("push failed", "error", err)
			os.Exit(1)
		}
		return
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	}, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ws, err := workspace.Open(ctx, store, cfg.Storage.Namespace, log)
	if err != nil {
		log.Error("failed to load workspace", "error", err)
		os.Exit(1)
	}

	if *export {
		if err := runExport(ctx, cfg, ws, *toS3, log); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	info, err := os.Stat(*path)
	if err != nil {
		log.Error("import path does not exist", "path", *path)
		os.Exit(1)
	}

	if *dryRun {
		log.Info("DRY RUN mode: the workspace will not be changed")
	}

	imp := bulk.New(ws, log, *dryRun)
	if info.IsDir() {
		if _, err := imp.ImportDir(ctx, *path); err != nil {
			log.Error("import failed", "error", err)
			printStats(log, imp.Stats())
			os.Exit(1)
		}
	} else if _, err := imp.ImportFile(ctx, *path); err != nil {
		log.Error("import failed", "error", err)
		printStats(log, imp.Stats())
		os.Exit(1)
	}

	printStats(log, imp.Stats())
	log.Info("import complete")
}

func runExport(ctx context.Context, cfg *config.Config, ws *workspace.Workspace, toS3 bool, log *slog.Logger) error {
	var sink bulk.Sink = bulk.FileSink{Dir: cfg.Export.Dir}
	if toS3 {
		if !cfg.Export.S3.Enabled() {
			return fmt.Errorf("-s3 needs export.s3.bucket in config")
		}
		s3, err := bulk.NewS3Sink(ctx, cfg.Export.S3)
		if err != nil {
			return err
		}
		s3.Prefix = cfg.Storage.Namespace
		sink = s3
	}

	exp := bulk.NewExporter(sink, log)
	cols := ws.Snapshot()
	master, err := exp.Master(ctx, cols)
	if err != nil {
		return err
	}
	blueprints, err := exp.Blueprints(ctx, cols.Templates)
	if err != nil {
		return err
	}
	fmt.Println(master)
	fmt.Println(blueprints)
	return nil
}

func runPush(ctx context.Context, serverURL, apiKey, stateDir, path string, dryRun bool, log *slog.Logger) error {
	var state *upload.StateDB
	if stateDir != "" {
		var err error
		state, err = upload.OpenStateDB(stateDir)
		if err != nil {
			return err
		}
		defer state.Close()
	}

	stats, err := upload.New(upload.NewClient(serverURL, apiKey), state, dryRun, log).Run(ctx, path)
	log.Info("push stats",
		"files_total", stats.FilesTotal,
		"files_uploaded", stats.FilesUploaded,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"workouts_sent", stats.WorkoutsSent,
		"templates_sent", stats.TemplatesSent,
		"exercises_sent", stats.ExercisesSent,
		"bytes_sent", humanize.Bytes(uint64(stats.BytesSent)),
	)
	return err
}

func printStats(log *slog.Logger, stats bulk.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"workouts_imported", stats.WorkoutsImported,
		"templates_imported", stats.TemplatesImported,
		"templates_replaced", stats.TemplatesReplaced,
		"exercises_imported", stats.ExercisesImported,
		"bytes_read", humanize.Bytes(uint64(stats.BytesRead)),
	)
}
