package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"skull-server/internal/game"
)

type EndReason string

const (
	ReasonFinished EndReason = "finished"
	ReasonExpired  EndReason = "expired"
)

var ErrArchiveDisabled = errors.New("ARCHIVE_DISABLED: No results archive is configured")

// GameResult is the record kept for a session after it is torn down.
// Winner is the winning user's id, empty for expired games.
type GameResult struct {
	GameID  string            `json:"gameId"`
	Winner  string            `json:"winner,omitempty"`
	Reason  EndReason         `json:"reason"`
	Players []game.PlayerInfo `json:"players"`
	Rounds  int               `json:"rounds"`
	EndedAt time.Time         `json:"endedAt"`
}

// Recorder receives results of torn down games. Record must not block.
type Recorder interface {
	Record(result GameResult)
}

type nopRecorder struct{}

func (nopRecorder) Record(GameResult) {}

type resultStore interface {
	Save(ctx context.Context, result GameResult) error
	Recent(ctx context.Context, limit int) ([]GameResult, error)
}

const createResultsTable = `
CREATE TABLE IF NOT EXISTS game_results (
	id       BIGSERIAL PRIMARY KEY,
	game_id  TEXT NOT NULL,
	winner   TEXT NOT NULL DEFAULT '',
	reason   TEXT NOT NULL,
	players  JSONB NOT NULL,
	rounds   INTEGER NOT NULL,
	ended_at TIMESTAMPTZ NOT NULL
)`

// PostgresArchive stores game results in PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func OpenPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach archive database: %w", err)
	}
	if _, err := pool.Exec(ctx, createResultsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Save(ctx context.Context, result GameResult) error {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("failed to serialize players: %w", err)
	}

	_, err = a.pool.Exec(ctx,
		`INSERT INTO game_results (game_id, winner, reason, players, rounds, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.GameID, result.Winner, string(result.Reason), players, result.Rounds, result.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save result for game %s: %w", result.GameID, err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (a *PostgresArchive) Recent(ctx context.Context, limit int) ([]GameResult, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT game_id, winner, reason, players, rounds, ended_at
		 FROM game_results ORDER BY ended_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []GameResult{}
	for rows.Next() {
		var (
			r       GameResult
			reason  string
			players []byte
		)
		if err := rows.Scan(&r.GameID, &r.Winner, &reason, &players, &r.Rounds, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, fmt.Errorf("failed to deserialize players of game %s: %w", r.GameID, err)
		}
		r.Reason = EndReason(reason)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return results, nil
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}

// ArchiveWriter hands results to a resultStore from a background worker so
// that tearing down a game never waits on the database. Results that do not
// fit into the queue are logged and dropped.
type ArchiveWriter struct {
	store   resultStore
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan GameResult
	closed bool
	done   chan struct{}
}

func NewArchiveWriter(store resultStore, queueSize int, log *zap.Logger) *ArchiveWriter {
	w := &ArchiveWriter{
		store:   store,
		log:     log,
		timeout: 5 * time.Second,
		queue:   make(chan GameResult, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *ArchiveWriter) run() {
	defer close(w.done)
	for result := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.store.Save(ctx, result); err != nil {
			w.log.Error("failed to archive game result", zap.String("gameID", result.GameID), zap.Error(err))
		}
		cancel()
	}
}

func (w *ArchiveWriter) Record(result GameResult) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.log.Warn("archive closed, dropping game result", zap.String("gameID", result.GameID))
		return
	}
	select {
	case w.queue <- result:
	default:
		w.log.Warn("archive queue full, dropping game result", zap.String("gameID", result.GameID))
	}
}

func (w *ArchiveWriter) Recent(ctx context.Context, limit int) ([]GameResult, error) {
	return w.store.Recent(ctx, limit)
}

// Close stops accepting results and waits until the queue is drained or ctx
// is done.
func (w *ArchiveWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("archive drain interrupted: %w", ctx.Err())
	}
}
