package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"skull-server/internal/game"
)

// Authenticator issues and verifies bearer tokens.
type Authenticator interface {
	Login(id, password string) (string, game.User, error)
	Verify(token string) (game.User, error)
}

// ResultLister serves the archive of finished games.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]GameResult, error)
}

type Options struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

type Server struct {
	opts              Options
	log               *zap.Logger
	store             *GameStore
	broker            *Broker
	auth              Authenticator
	results           ResultLister
	connectionManager *ConnectionManager
	rateLimiter       *RateLimiter

	stopCleanup context.CancelFunc
}

// NewServer wires the transport around store. results may be nil when no
// archive is configured.
func NewServer(opts Options, store *GameStore, auth Authenticator, results ResultLister, log *zap.Logger) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RateLimit < 1 {
		opts.RateLimit = 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:              opts,
		log:               log,
		store:             store,
		broker:            NewBroker(store, log.Named("broker")),
		auth:              auth,
		results:           results,
		connectionManager: NewConnectionManager(),
		rateLimiter:       NewRateLimiter(opts.RateLimit, opts.RateWindow),
		stopCleanup:       cancel,
	}

	go s.cleanupTask(ctx)
	return s
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// cleanupTask periodically forgets rate limit windows of quiet connections.
func (s *Server) cleanupTask(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Cleanup()
		}
	}
}

// Shutdown stops background work and closes open websocket connections.
// The HTTP listener itself is shut down by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopCleanup()
	s.store.Deactivate()
	s.connectionManager.CloseAll("Server shutting down")

	deadline := time.NewTicker(10 * time.Millisecond)
	defer deadline.Stop()
	for s.connectionManager.Count() > 0 {
		select {
		case <-ctx.Done():
			s.log.Warn("shutdown with open connections", zap.Int("connections", s.connectionManager.Count()))
			return ctx.Err()
		case <-deadline.C:
		}
	}
	return nil
}
