package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/coachdesk/internal/config"
	"github.com/claude/coachdesk/internal/exercises"
	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/mcp"
	"github.com/claude/coachdesk/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	remoteURL := flag.String("remote", "", "CoachDesk server URL; reads data over the REST API instead of the local store")
	apiKey := flag.String("api-key", os.Getenv("COACHDESK_AUTH_API_KEY"), "API key for -remote")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *configPath == "" && *remoteURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachdesk-mcp -config config.yaml | -remote https://coachdesk.tail1234.ts.net [-api-key KEY]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var (
		ds        mcp.DataSource
		catalog   = exercises.Default()
		increment = loadcalc.DefaultIncrement
	)
	if *remoteURL != "" {
		ds = mcp.NewHTTPClient(*remoteURL, *apiKey)
		log.Info("remote mode", "url", *remoteURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		st, err := storage.Open(context.Background(), storage.Options{
			Driver:         cfg.Storage.Driver,
			SQLitePath:     cfg.Storage.SQLitePath,
			DSN:            cfg.Database.DSN(),
			MigrationsPath: cfg.Storage.MigrationsPath,
			CacheMB:        cfg.Storage.CacheMB,
		}, log)
		if err != nil {
			log.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer st.KV.Close()
		ds = storage.NewRepository(st.KV, log)

		catalog, err = exercises.Load(cfg.Training.ExercisesPath)
		if err != nil {
			log.Error("failed to load exercise catalog", "error", err)
			os.Exit(1)
		}
		increment = cfg.Training.PlateIncrement
	}

	s := mcp.New(ds, catalog, increment, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
