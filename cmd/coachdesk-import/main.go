package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/coachdesk/internal/config"
	"github.com/claude/coachdesk/internal/importer"
	"github.com/claude/coachdesk/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dumpPath := flag.String("path", "", "path to a localStorage JSON dump (required, - for stdin)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dumpPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachdesk-import -config config.yaml -path dump.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	in := os.Stdin
	if *dumpPath != "-" {
		f, err := os.Open(*dumpPath)
		if err != nil {
			log.Error("failed to open dump", "path", *dumpPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode, nothing will be written to the store")
	}

	st, err := storage.Open(ctx, storage.Options{
		Driver:         cfg.Storage.Driver,
		SQLitePath:     cfg.Storage.SQLitePath,
		DSN:            cfg.Database.DSN(),
		MigrationsPath: cfg.Storage.MigrationsPath,
	}, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.KV.Close()

	// Run import
	imp := importer.New(storage.NewRepository(st.KV, log), log, *dryRun)
	stats, err := imp.Import(ctx, in)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"clients", stats.Clients,
		"programs", stats.Programs,
		"workouts", stats.Workouts,
		"workout_logs", stats.WorkoutLogs,
		"current_program", stats.CurrentProgram,
		"client_ids_assigned", stats.ClientIDsAssigned,
		"orphan_programs", stats.OrphanPrograms,
	)
	if len(stats.SkippedKeys) > 0 {
		log.Info("skipped keys", "keys", stats.SkippedKeys)
	}
}
