package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/wodlink/internal/config"
	"github.com/meltforce/wodlink/internal/logging"
	"github.com/meltforce/wodlink/internal/mcp"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/storage"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and WODLINK_* env when empty)")
	serverURL := flag.String("server", "", "wodlink server URL; talk to it over HTTP instead of opening local storage")
	apiKey := flag.String("api-key", os.Getenv("WODLINK_API_KEY"), "API key for -server writes")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("wodlink-mcp", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol.
	log, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("mcp using remote server", "url", *serverURL)
	} else {
		ctx := context.Background()
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
		sync := teamsync.New(cfg.Server.BaseURL, share.Guard{Limit: cfg.Share.MaxLinkLength}, nil, nil, log)
		ds = mcp.NewLocal(ws, sync)
	}

	s := mcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
