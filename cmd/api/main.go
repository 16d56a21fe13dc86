package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"skull-server/internal/auth"
	"skull-server/internal/config"
	"skull-server/internal/game"
	"skull-server/internal/logging"
	"skull-server/internal/server"
)

type shutdownHooks struct {
	server  *server.Server
	http    *http.Server
	writer  *server.ArchiveWriter
	archive *server.PostgresArchive
}

func gracefulShutdown(log *zap.Logger, hooks shutdownHooks, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutdown signal received, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hooks.server.Shutdown(ctx); err != nil {
		log.Warn("error during server shutdown", zap.Error(err))
	}
	if err := hooks.http.Shutdown(ctx); err != nil {
		log.Warn("http server forced to shutdown", zap.Error(err))
	}
	if hooks.writer != nil {
		if err := hooks.writer.Close(ctx); err != nil {
			log.Warn("results archive not drained", zap.Error(err))
		}
	}
	if hooks.archive != nil {
		hooks.archive.Close()
	}

	done <- true
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	accounts, err := auth.LoadAccounts(cfg.UsersFile)
	if err != nil {
		return err
	}
	authStore, err := auth.NewStore(accounts, auth.Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})
	if err != nil {
		return err
	}
	log.Info("accounts loaded", zap.Int("accounts", len(accounts)))

	hooks := shutdownHooks{}
	var (
		storeOpts []server.StoreOption
		results   server.ResultLister
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := server.OpenPostgresArchive(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return err
		}
		writer := server.NewArchiveWriter(archive, cfg.ArchiveQueueSize, log.Named("archive"))
		hooks.archive, hooks.writer = archive, writer
		storeOpts = append(storeOpts, server.WithRecorder(writer))
		results = writer
		log.Info("results archive enabled")
	} else {
		log.Info("DATABASE_URL not set, results archive disabled")
	}

	rules := game.DefaultRules()
	rules.WinPoints = cfg.WinPoints
	store := server.NewGameStore(server.StoreConfig{
		Rules:         rules,
		IdleExpiry:    cfg.IdleExpiry,
		SweepInterval: cfg.SweepInterval,
		SignalBuffer:  cfg.SignalBuffer,
	}, log.Named("store"), storeOpts...)
	store.Activate(context.Background())

	srv := server.NewServer(server.Options{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
	}, store, authStore, results, log.Named("server"))
	httpServer := srv.HTTPServer()
	hooks.server, hooks.http = srv, httpServer

	done := make(chan bool, 1)
	go gracefulShutdown(log, hooks, done)

	log.Info("listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info("graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
