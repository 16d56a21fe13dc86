package server

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"skull-server/internal/game"
)

var (
	alice = game.User{ID: "alice", DisplayName: "Alice"}
	bob   = game.User{ID: "bob", DisplayName: "Bob"}
	carol = game.User{ID: "carol", DisplayName: "Carol"}
	admin = game.User{ID: "root", DisplayName: "Root", IsAdmin: true}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// firstCardRand always eliminates the first remaining card.
type firstCardRand struct{}

func (firstCardRand) IntN(int) int { return 0 }

type memoryRecorder struct {
	mu      sync.Mutex
	results []GameResult
}

func (r *memoryRecorder) Record(result GameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *memoryRecorder) Results() []GameResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]GameResult(nil), r.results...)
}

func testStoreConfig() StoreConfig {
	return StoreConfig{
		Rules:         game.Rules{WinPoints: 2, Deck: []game.Card{game.Rose, game.Rose, game.Skull}},
		IdleExpiry:    15 * time.Minute,
		SweepInterval: 5 * time.Minute,
		SignalBuffer:  DefaultSignalBuffer,
	}
}

func newTestStore(t *testing.T, opts ...StoreOption) *GameStore {
	t.Helper()
	opts = append([]StoreOption{WithRandom(func() game.RandomSource { return firstCardRand{} })}, opts...)
	return NewGameStore(testStoreConfig(), zaptest.NewLogger(t), opts...)
}

// startedGame creates a game for alice, lets bob join and starts it.
func startedGame(t *testing.T, store *GameStore) string {
	t.Helper()
	id := store.CreateGame(alice)
	if err := store.JoinGame(id, bob); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := store.StartGame(id, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	return id
}
