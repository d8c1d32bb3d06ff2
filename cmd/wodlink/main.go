package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	"github.com/meltforce/wodlink/internal/bulk"
	"github.com/meltforce/wodlink/internal/config"
	"github.com/meltforce/wodlink/internal/logging"
	"github.com/meltforce/wodlink/internal/server"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/storage"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and WODLINK_* env when empty)")
	link := flag.String("link", "", "team sync link to import before serving")
	migrateOnly := flag.Bool("migrate-only", false, "open storage, apply migrations and exit")
	flag.Parse()

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
	log.Info("wodlink starting", "version", Version)

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

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ws, err := workspace.Open(ctx, store, cfg.Storage.Namespace, log)
	if err != nil {
		log.Error("failed to load workspace", "error", err)
		os.Exit(1)
	}

	notify := teamsync.NotifierFunc(func(n teamsync.Notification) {
		log.Info("notification", "level", n.Level, "message", n.Message, "kind", n.Kind)
	})
	sync := teamsync.New(cfg.Server.BaseURL, share.Guard{Limit: cfg.Share.MaxLinkLength}, nil, notify, log)

	// A link given on the command line is merged before anything else can
	// touch the workspace.
	if *link != "" {
		in, err := teamsync.ParseLink(*link)
		if err != nil {
			log.Error("invalid startup link", "error", err)
			os.Exit(1)
		}
		out := sync.Receive(ctx, ws, in)
		if out.Notification == nil {
			log.Warn("startup link carries no shared payload")
		}
	}

	exporter, err := newExporter(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up export sink", "error", err)
		os.Exit(1)
	}

	srv := server.New(ws, sync, exporter, cfg.Auth.APIKey, log)

	if cfg.Inbox.Dir != "" {
		inbox, err := bulk.NewInbox(cfg.Inbox.Dir, bulk.New(ws, log, false), log)
		if err != nil {
			log.Error("failed to set up inbox", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := inbox.Run(ctx); err != nil {
				log.Error("inbox stopped", "error", err)
			}
		}()
	}

	// Start server, tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// newExporter writes to the S3 bucket when one is configured, otherwise to
// the local export directory.
func newExporter(ctx context.Context, cfg *config.Config, log *slog.Logger) (*bulk.Exporter, error) {
	if cfg.Export.S3.Enabled() {
		sink, err := bulk.NewS3Sink(ctx, cfg.Export.S3)
		if err != nil {
			return nil, err
		}
		sink.Prefix = cfg.Storage.Namespace
		log.Info("exports go to s3", "bucket", cfg.Export.S3.Bucket, "endpoint", cfg.Export.S3.Endpoint)
		return bulk.NewExporter(sink, log), nil
	}
	return bulk.NewExporter(bulk.FileSink{Dir: cfg.Export.Dir}, log), nil
}
