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

	"github.com/IBM/pgxpoolprometheus"
	"github.com/prometheus/client_golang/prometheus"
	"tailscale.com/tsnet"

	"github.com/claude/coachdesk/internal/completion"
	"github.com/claude/coachdesk/internal/config"
	"github.com/claude/coachdesk/internal/exercises"
	"github.com/claude/coachdesk/internal/metrics"
	"github.com/claude/coachdesk/internal/program"
	"github.com/claude/coachdesk/internal/server"
	"github.com/claude/coachdesk/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("CoachDesk starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *migrateOnly {
		if cfg.Storage.Driver != "postgres" {
			log.Info("migrate-only: nothing to migrate for driver", "driver", cfg.Storage.Driver)
			return
		}
		if err := storage.RunMigrations(cfg.Database.DSN(), cfg.Storage.MigrationsPath); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	// Open store
	ctx := context.Background()
	st, err := storage.Open(ctx, storage.Options{
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
	repo := storage.NewRepository(st.KV, log)

	// Metrics
	var collectors []prometheus.Collector
	if st.Postgres != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			st.Postgres.Pool,
			map[string]string{"db_name": cfg.Database.Name},
		))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("coachdesk", "server", promRegistry)

	// Exercise catalog
	catalog, err := exercises.Load(cfg.Training.ExercisesPath)
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}
	log.Info("exercise catalog loaded", "exercises", catalog.Len())

	// Program generation
	var gen program.Generator
	client := completion.New(completion.Options{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     cfg.Completion.Timeout(),
		Attempts:    cfg.Completion.Attempts,
	})
	if client.Configured() {
		gen = program.NewCompletionGenerator(client)
		log.Info("completion API configured", "model", client.Model())
	} else {
		log.Warn("no completion API key, programs use fallback templates")
	}
	programs := program.NewService(gen, log,
		program.WithTimeout(cfg.Completion.GenerationTimeout()),
		program.WithIncrement(cfg.Training.PlateIncrement),
		program.WithRecorder(metricsManager),
	)

	// Create server
	srv := server.New(repo, programs, catalog, cfg.Auth.APIKey, log)
	srv.SetMetrics(metricsManager, promRegistry)
	srv.SetIncrement(cfg.Training.PlateIncrement)
	if cfg.Server.StaticDir != "" {
		srv.SetFrontend(os.DirFS(cfg.Server.StaticDir))
		log.Info("serving frontend", "dir", cfg.Server.StaticDir)
	}

	// Start server over tsnet or plain HTTP
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
		srv.SetIdentity(func(ctx context.Context, remoteAddr string) (server.UserInfo, error) {
			who, err := lc.WhoIs(ctx, remoteAddr)
			if err != nil {
				return server.UserInfo{}, err
			}
			return server.UserInfo{
				Login:       who.UserProfile.LoginName,
				DisplayName: who.UserProfile.DisplayName,
			}, nil
		})

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

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
