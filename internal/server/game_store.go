package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"skull-server/internal/game"
	"skull-server/internal/skull"
)

var (
	ErrGameNotFound     = errors.New("GAME_NOT_FOUND: Game not found")
	ErrNotMember        = errors.New("NOT_IN_GAME: User is not part of this game")
	ErrNotStarted       = errors.New("GAME_NOT_STARTED: Game hasn't started yet")
	ErrAlreadyStarted   = errors.New("GAME_ALREADY_STARTED: Game is already running")
	ErrAlreadyMember    = errors.New("ALREADY_IN_GAME: User already joined this game")
	ErrNotInitiator     = errors.New("NOT_CREATOR: Only the game creator can start the game")
	ErrNotEnoughPlayers = errors.New("NOT_ENOUGH_PLAYERS: At least 2 players are needed to start")
)

const (
	DefaultIdleExpiry    = 15 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type StoreConfig struct {
	Rules         game.Rules
	IdleExpiry    time.Duration
	SweepInterval time.Duration
	SignalBuffer  int
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Rules:         game.DefaultRules(),
		IdleExpiry:    DefaultIdleExpiry,
		SweepInterval: DefaultSweepInterval,
		SignalBuffer:  DefaultSignalBuffer,
	}
}

type StoreOption func(*GameStore)

// WithClock replaces time.Now for interaction times and the idle sweep.
func WithClock(now func() time.Time) StoreOption {
	return func(s *GameStore) { s.now = now }
}

func WithRecorder(r Recorder) StoreOption {
	return func(s *GameStore) { s.recorder = r }
}

// WithRandom replaces the source each new controller draws card
// eliminations from.
func WithRandom(newRandom func() game.RandomSource) StoreOption {
	return func(s *GameStore) { s.newRandom = newRandom }
}

// GameStore is the registry of live games. The store lock only guards id
// allocation; games, controllers and signal channels live in concurrent maps
// and each game serializes its own operations.
type GameStore struct {
	cfg       StoreConfig
	log       *zap.Logger
	now       func() time.Time
	recorder  Recorder
	newRandom func() game.RandomSource
	sessions  *SessionManager

	mu  sync.Mutex
	ids *rand.Rand

	games       sync.Map // gameID -> *Game
	controllers sync.Map // gameID -> *skull.Controller
	channels    sync.Map // gameID -> *signalChannel

	lifecycle sync.Mutex
	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

func NewGameStore(cfg StoreConfig, log *zap.Logger, opts ...StoreOption) *GameStore {
	defaults := DefaultStoreConfig()
	if cfg.Rules.WinPoints < 1 || len(cfg.Rules.Deck) == 0 {
		cfg.Rules = defaults.Rules
	}
	if cfg.IdleExpiry <= 0 {
		cfg.IdleExpiry = defaults.IdleExpiry
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.SignalBuffer < 1 {
		cfg.SignalBuffer = defaults.SignalBuffer
	}

	s := &GameStore{
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		recorder:  nopRecorder{},
		newRandom: func() game.RandomSource { return NewSecureRand() },
		sessions:  NewSessionManager(),
		ids:       NewSecureRand(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame opens a new game with initiator in seat 0 and returns its id.
func (s *GameStore) CreateGame(initiator game.User) string {
	s.mu.Lock()
	id := GenerateGameID(s.ids, func(candidate string) bool {
		_, taken := s.games.Load(candidate)
		return taken
	})
	s.channels.Store(id, newSignalChannel(s.cfg.SignalBuffer))
	s.games.Store(id, newGame(id, initiator, s.now))
	s.mu.Unlock()

	s.sessions.StoreSession(initiator.ID, id)
	s.log.Info("game created", zap.String("gameID", id), zap.String("userID", initiator.ID))
	return id
}

func (s *GameStore) JoinGame(gameID string, user game.User) error {
	g, ok := s.game(gameID)
	if !ok {
		return ErrGameNotFound
	}
	if err := g.Join(user); err != nil {
		return err
	}

	s.sessions.StoreSession(user.ID, gameID)
	s.publish(gameID, game.SignalUpdate)
	s.log.Info("user joined game", zap.String("gameID", gameID), zap.String("userID", user.ID))
	return nil
}

func (s *GameStore) StartGame(gameID string, user game.User) error {
	g, ok := s.game(gameID)
	if !ok {
		return ErrGameNotFound
	}
	controller, err := g.Start(user, s.cfg.Rules, s.newRandom())
	if err != nil {
		return err
	}

	s.controllers.Store(gameID, controller)
	s.publish(gameID, game.SignalStart)
	s.log.Info("game started", zap.String("gameID", gameID), zap.Int("players", controller.State().NumPlayers))
	return nil
}

// SubmitMove applies move for user. Lookup failures are returned as errors;
// illegal moves come back as a BadMove outcome.
func (s *GameStore) SubmitMove(gameID string, user game.User, move game.Move) (game.MoveOutcome, error) {
	g, ok := s.game(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	controller, ok := s.controller(gameID)
	if !ok {
		return nil, ErrNotStarted
	}
	index, ok := g.IndexOf(user)
	if !ok {
		return nil, ErrNotMember
	}

	g.Touch()
	outcome := controller.Apply(index, move)

	switch o := outcome.(type) {
	case game.BadMove:
		s.log.Debug("move rejected", zap.String("gameID", gameID), zap.Int("player", index), zap.String("reason", o.Reason))
	case game.GameEnded:
		if g.end() {
			s.removeGame(gameID, ReasonFinished, o.Winner)
		}
	default:
		s.publish(gameID, game.SignalUpdate)
	}
	return outcome, nil
}

// FullState is the unfiltered state of a running game. Callers check admin
// rights themselves.
func (s *GameStore) FullState(gameID string) (game.GameState, bool) {
	controller, ok := s.controller(gameID)
	if !ok {
		return game.GameState{}, false
	}
	return controller.State(), true
}

func (s *GameStore) PlayerView(gameID string, user game.User) (game.PlayerGameState, bool) {
	g, ok := s.game(gameID)
	if !ok {
		return game.PlayerGameState{}, false
	}
	controller, ok := s.controller(gameID)
	if !ok {
		return game.PlayerGameState{}, false
	}
	index, ok := g.IndexOf(user)
	if !ok {
		return game.PlayerGameState{}, false
	}
	return controller.PlayerView(index)
}

// Roster lists the players of gameID, or false if user is not one of them.
func (s *GameStore) Roster(gameID string, user game.User) ([]game.PlayerInfo, bool) {
	g, ok := s.game(gameID)
	if !ok || !g.IsMember(user) {
		return nil, false
	}
	return g.Roster(), true
}

// GamesFor lists the live games user belongs to in the order they joined.
func (s *GameStore) GamesFor(user game.User) []game.SessionInfo {
	infos := []game.SessionInfo{}
	for _, id := range s.sessions.GetSessions(user.ID) {
		g, ok := s.game(id)
		if !ok {
			continue
		}
		infos = append(infos, game.SessionInfo{
			GameID:      id,
			IsRunning:   g.IsRunning(),
			IsInitiator: g.IsInitiator(user),
		})
	}
	return infos
}

// Count returns the number of live games.
func (s *GameStore) Count() int {
	n := 0
	s.games.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *GameStore) signals(gameID string) (*signalChannel, bool) {
	v, ok := s.channels.Load(gameID)
	if !ok {
		return nil, false
	}
	return v.(*signalChannel), true
}

// SweepExpired removes every game idle for longer than the configured
// expiry and returns how many were removed.
func (s *GameStore) SweepExpired() int {
	now := s.now()
	removed := 0

	s.games.Range(func(key, value any) bool {
		g := value.(*Game)
		if g.expire(now, s.cfg.IdleExpiry) {
			s.log.Info("removing game due to inactivity", zap.String("gameID", g.ID), zap.Duration("idle", g.idleFor(now)))
			if s.removeGame(g.ID, ReasonExpired, -1) {
				removed++
			}
		}
		return true
	})
	return removed
}

// Activate starts the background sweep. Calling it while the sweep runs is
// a no-op.
func (s *GameStore) Activate(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.stopSweep != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.stopSweep = cancel
	s.sweepDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.SweepExpired(); n > 0 {
					s.log.Info("idle sweep completed", zap.Int("removed", n))
				}
			}
		}
	}()
	s.log.Info("game store activated", zap.Duration("sweepInterval", s.cfg.SweepInterval), zap.Duration("idleExpiry", s.cfg.IdleExpiry))
}

// Deactivate stops the background sweep and waits for it to exit.
func (s *GameStore) Deactivate() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.stopSweep == nil {
		return
	}

	s.stopSweep()
	<-s.sweepDone
	s.stopSweep = nil
	s.sweepDone = nil
	s.log.Info("game store deactivated")
}

// removeGame tears gameID down. Only the first caller for an id does the
// work and gets true; later calls find nothing to remove.
func (s *GameStore) removeGame(gameID string, reason EndReason, winner int) bool {
	v, ok := s.games.LoadAndDelete(gameID)
	if !ok {
		return false
	}
	g := v.(*Game)

	rounds := 0
	if c, ok := s.controllers.LoadAndDelete(gameID); ok {
		rounds = c.(*skull.Controller).State().RoundCount
	}
	if ch, ok := s.channels.LoadAndDelete(gameID); ok {
		ch.(*signalChannel).Close(game.StateSignal{Kind: game.SignalEnded, GameID: gameID})
	}

	roster := g.Roster()
	userIDs := make([]string, len(roster))
	for i, p := range roster {
		userIDs[i] = p.UserID
	}
	s.sessions.RemoveGame(gameID, userIDs...)

	result := GameResult{
		GameID:  gameID,
		Reason:  reason,
		Players: roster,
		Rounds:  rounds,
		EndedAt: s.now(),
	}
	if p, ok := g.PlayerAt(winner); ok {
		result.Winner = p.ID
	}
	s.recorder.Record(result)

	s.log.Info("game removed", zap.String("gameID", gameID), zap.String("reason", string(reason)), zap.String("winner", result.Winner))
	return true
}

func (s *GameStore) publish(gameID string, kind game.SignalKind) {
	if ch, ok := s.signals(gameID); ok {
		ch.Publish(game.StateSignal{Kind: kind, GameID: gameID})
	}
}

func (s *GameStore) game(gameID string) (*Game, bool) {
	v, ok := s.games.Load(gameID)
	if !ok {
		return nil, false
	}
	return v.(*Game), true
}

func (s *GameStore) controller(gameID string) (*skull.Controller, bool) {
	v, ok := s.controllers.Load(gameID)
	if !ok {
		return nil, false
	}
	return v.(*skull.Controller), true
}
