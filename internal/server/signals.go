package server

import (
	"sync"

	"skull-server/internal/game"
)

// DefaultSignalBuffer is how many undelivered signals a listener may hold
// before the oldest one is dropped.
const DefaultSignalBuffer = 4

// signalChannel fans the state signals of one game out to its listeners.
// Publishing never blocks: a listener that falls behind loses its oldest
// pending signals. The terminal signal is delivered through Close, which
// makes room for it, so it cannot be lost.
type signalChannel struct {
	mu        sync.Mutex
	buffer    int
	listeners map[*listener]struct{}
	closed    bool
	dropped   int
}

type listener struct {
	signals chan game.StateSignal
}

func newSignalChannel(buffer int) *signalChannel {
	if buffer < 1 {
		buffer = DefaultSignalBuffer
	}
	return &signalChannel{
		buffer:    buffer,
		listeners: make(map[*listener]struct{}),
	}
}

// attach registers a new listener. It returns nil once the channel is closed.
func (c *signalChannel) attach() *listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	l := &listener{signals: make(chan game.StateSignal, c.buffer)}
	c.listeners[l] = struct{}{}
	return l
}

func (c *signalChannel) detach(l *listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, l)
}

func (c *signalChannel) Publish(signal game.StateSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for l := range c.listeners {
		if offer(l.signals, signal) {
			c.dropped++
		}
	}
}

// Close delivers final to every listener and closes their buffers. Calls
// after the first are no-ops.
func (c *signalChannel) Close(final game.StateSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for l := range c.listeners {
		if offer(l.signals, final) {
			c.dropped++
		}
		close(l.signals)
	}
	clear(c.listeners)
}

func (c *signalChannel) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Dropped counts signals discarded to make room for newer ones.
func (c *signalChannel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// offer enqueues signal, discarding the oldest queued signal while the
// buffer is full. Only the holder of the channel lock sends, so the loop
// ends after at most one drop per concurrent receive. Reports whether
// anything was dropped.
func offer(ch chan game.StateSignal, signal game.StateSignal) bool {
	dropped := false
	for {
		select {
		case ch <- signal:
			return dropped
		default:
		}
		select {
		case <-ch:
			dropped = true
		default:
		}
	}
}
