package server

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"skull-server/internal/game"
)

type signalSource interface {
	signals(gameID string) (*signalChannel, bool)
}

type registryKey struct {
	gameID string
	userID string
}

// Broker tracks which user listens to which game. There is at most one
// registration per (game, user) pair; subscribing again supersedes the
// previous stream.
type Broker struct {
	log    *zap.Logger
	source signalSource

	mu            sync.Mutex
	registrations map[registryKey]*Stream
}

func NewBroker(source *GameStore, log *zap.Logger) *Broker {
	return newBroker(source, log)
}

func newBroker(source signalSource, log *zap.Logger) *Broker {
	return &Broker{
		log:           log,
		source:        source,
		registrations: make(map[registryKey]*Stream),
	}
}

// Stream delivers the signals of one game to one subscriber. It is the merge
// of the game's signal buffer and a private cancel channel, and completes
// after the terminal signal or after cancellation, whichever comes first.
type Stream struct {
	GameID string

	broker    *Broker
	key       registryKey
	channel   *signalChannel
	listener  *listener
	cancel    chan struct{}
	stopOnce  sync.Once
	completed atomic.Bool
}

// Subscribe registers user for signals of gameID. It returns false if the
// game has no live signal channel.
func (b *Broker) Subscribe(gameID string, user game.User) (*Stream, bool) {
	channel, ok := b.source.signals(gameID)
	if !ok {
		return nil, false
	}
	l := channel.attach()
	if l == nil {
		return nil, false
	}

	key := registryKey{gameID: gameID, userID: user.ID}
	stream := &Stream{
		GameID:   gameID,
		broker:   b,
		key:      key,
		channel:  channel,
		listener: l,
		cancel:   make(chan struct{}),
	}

	b.mu.Lock()
	previous := b.registrations[key]
	b.registrations[key] = stream
	b.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
	b.log.Info("user subscribed to game signals", zap.String("userID", user.ID), zap.String("gameID", gameID))
	return stream, true
}

// Unsubscribe cancels the registration of user for gameID, if any.
func (b *Broker) Unsubscribe(gameID string, user game.User) {
	key := registryKey{gameID: gameID, userID: user.ID}

	b.mu.Lock()
	stream := b.registrations[key]
	delete(b.registrations, key)
	b.mu.Unlock()

	if stream != nil {
		stream.Cancel()
		b.log.Info("user unsubscribed from game signals", zap.String("userID", user.ID), zap.String("gameID", gameID))
	}
}

// UnsubscribeAll cancels every registration of user across all games.
func (b *Broker) UnsubscribeAll(user game.User) {
	var streams []*Stream

	b.mu.Lock()
	for key, stream := range b.registrations {
		if key.userID == user.ID {
			streams = append(streams, stream)
			delete(b.registrations, key)
		}
	}
	b.mu.Unlock()

	for _, stream := range streams {
		stream.Cancel()
	}
	b.log.Info("user unsubscribed from all game signals", zap.String("userID", user.ID), zap.Int("streams", len(streams)))
}

// Registrations returns the number of live registrations.
func (b *Broker) Registrations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.registrations)
}

// release drops the registration for stream's key if it is still the
// current one.
func (b *Broker) release(stream *Stream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registrations[stream.key] == stream {
		delete(b.registrations, stream.key)
	}
}

// Next blocks until the next signal. It returns false once the stream has
// completed or ctx is done. The terminal signal is returned with true and
// every later call returns false.
func (s *Stream) Next(ctx context.Context) (game.StateSignal, bool) {
	if s.completed.Load() {
		return game.StateSignal{}, false
	}
	select {
	case <-s.cancel:
		s.finish()
		return game.StateSignal{}, false
	default:
	}

	select {
	case signal, ok := <-s.listener.signals:
		if !ok {
			s.finish()
			return game.StateSignal{}, false
		}
		if signal.Terminal() {
			s.finish()
		}
		return signal, true
	case <-s.cancel:
		s.finish()
		return game.StateSignal{}, false
	case <-ctx.Done():
		return game.StateSignal{}, false
	}
}

// Done is closed when the stream is cancelled.
func (s *Stream) Done() <-chan struct{} {
	return s.cancel
}

// Cancel completes the stream and drops its registration unless a newer
// stream has superseded it.
func (s *Stream) Cancel() {
	s.stop()
	s.finish()
}

func (s *Stream) stop() {
	s.stopOnce.Do(func() { close(s.cancel) })
}

func (s *Stream) finish() {
	if s.completed.Swap(true) {
		return
	}
	s.channel.detach(s.listener)
	s.broker.release(s)
}
