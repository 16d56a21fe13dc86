package server

import (
	"sync"
	"time"

	"skull-server/internal/game"
	"skull-server/internal/skull"
)

// MinPlayers is the smallest roster a game can be started with.
const MinPlayers = 2

// Game is one session: its roster, whether it is running and when somebody
// last interacted with it. Every mutation goes through mu.
type Game struct {
	ID string

	mu              sync.Mutex
	players         []game.User
	indexes         map[string]int
	running         bool
	ended           bool
	lastInteraction time.Time
	now             func() time.Time
}

func newGame(id string, initiator game.User, now func() time.Time) *Game {
	return &Game{
		ID:              id,
		players:         []game.User{initiator},
		indexes:         map[string]int{initiator.ID: 0},
		lastInteraction: now(),
		now:             now,
	}
}

// Join seats user at the next free index. The interaction time is updated
// whether or not the join is accepted.
func (g *Game) Join(user game.User) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastInteraction = g.now()

	switch {
	case g.ended:
		return ErrGameNotFound
	case g.running:
		return ErrAlreadyStarted
	}
	if _, ok := g.indexes[user.ID]; ok {
		return ErrAlreadyMember
	}

	g.indexes[user.ID] = len(g.players)
	g.players = append(g.players, user)
	return nil
}

// Start flips the game to running and returns a controller sized to the
// current roster. Only the initiator may start, and only once.
func (g *Game) Start(user game.User, rules game.Rules, rng game.RandomSource) (*skull.Controller, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.ended:
		return nil, ErrGameNotFound
	case g.running:
		return nil, ErrAlreadyStarted
	}
	index, ok := g.indexes[user.ID]
	if !ok {
		return nil, ErrNotMember
	}
	if index != 0 {
		return nil, ErrNotInitiator
	}
	if len(g.players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	g.running = true
	g.lastInteraction = g.now()
	return skull.NewController(len(g.players), rules, rng), nil
}

func (g *Game) IsMember(user game.User) bool {
	_, ok := g.IndexOf(user)
	return ok
}

func (g *Game) IndexOf(user game.User) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	index, ok := g.indexes[user.ID]
	return index, ok
}

func (g *Game) IsInitiator(user game.User) bool {
	index, ok := g.IndexOf(user)
	return ok && index == 0
}

func (g *Game) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Roster lists the players in seat order.
func (g *Game) Roster() []game.PlayerInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	roster := make([]game.PlayerInfo, len(g.players))
	for i, p := range g.players {
		roster[i] = game.PlayerInfo{
			UserID:      p.ID,
			DisplayName: p.DisplayName,
			IsInitiator: i == 0,
			Index:       i,
		}
	}
	return roster
}

// PlayerAt returns the user seated at index.
func (g *Game) PlayerAt(index int) (game.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.players) {
		return game.User{}, false
	}
	return g.players[index], true
}

func (g *Game) Touch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastInteraction = g.now()
}

func (g *Game) idleFor(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.Sub(g.lastInteraction)
}

// expire marks the game ended if it has been idle for longer than limit.
// The check and the mark happen under one lock acquisition, so a concurrent
// join or touch either lands before it or sees the game as gone.
func (g *Game) expire(now time.Time, limit time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended || now.Sub(g.lastInteraction) <= limit {
		return false
	}
	g.ended = true
	return true
}

// end marks the game ended. It reports false if it already was.
func (g *Game) end() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended {
		return false
	}
	g.ended = true
	return true
}
