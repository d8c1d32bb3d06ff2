package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/wodlink/internal/config"
	"github.com/meltforce/wodlink/internal/dispatch"
	"github.com/meltforce/wodlink/internal/logging"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/storage"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and WODLINK_* env when empty)")
	session := flag.String("session", "", "share the session with this ID")
	day := flag.String("day", "", "share every session on this date (YYYY-MM-DD)")
	blueprint := flag.String("blueprint", "", "share the blueprint with this ID")
	open := flag.String("open", "", "import a team sync link")
	flag.Parse()

	kind, key := share.Kind(""), ""
	switch {
	case *session != "":
		kind, key = share.KindSingleSession, *session
	case *day != "":
		kind, key = share.KindDayBatch, *day
	case *blueprint != "":
		kind, key = share.KindBlueprint, *blueprint
	}
	if kind == "" && *open == "" {
		fmt.Fprintf(os.Stderr, "Usage: wodlink-share [-config config.yaml] (-session ID | -day YYYY-MM-DD | -blueprint ID | -open LINK)\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	notify := teamsync.NotifierFunc(func(n teamsync.Notification) {
		fmt.Fprintln(os.Stderr, n.Message)
	})
	d := dispatch.NewAuto(dispatch.NewTerminal(os.Stdout), dispatch.Clipboard{}, dispatch.Writer{W: os.Stdout})
	sync := teamsync.New(cfg.Server.BaseURL, share.Guard{Limit: cfg.Share.MaxLinkLength}, d, notify, log)

	if *open != "" {
		in, err := teamsync.ParseLink(*open)
		if err != nil {
			log.Error("invalid link", "error", err)
			os.Exit(1)
		}
		out := sync.Receive(ctx, ws, in)
		if out.Notification == nil {
			fmt.Fprintln(os.Stderr, "link carries no shared payload")
			os.Exit(1)
		}
		if out.Err != nil {
			os.Exit(1)
		}
		return
	}

	err = sync.ShareRecord(ctx, ws, kind, key)
	switch {
	case err == nil:
	case errors.Is(err, teamsync.ErrNotFound), errors.Is(err, teamsync.ErrNothingToShare):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		log.Debug("share failed", "error", err)
		os.Exit(1)
	}
}
