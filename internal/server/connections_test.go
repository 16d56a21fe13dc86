package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionManager_AddRemove(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager()

	cm.AddConnection("conn-1", alice, nil)
	cm.AddConnection("conn-2", alice, nil)
	cm.AddConnection("conn-3", bob, nil)
	assert.Equal(3, cm.Count())

	streams, remaining := cm.RemoveConnection("conn-1")
	assert.Empty(streams)
	assert.Equal(1, remaining, "alice still has conn-2 open")

	_, remaining = cm.RemoveConnection("conn-3")
	assert.Equal(0, remaining)
	assert.Equal(1, cm.Count())

	// removing twice is a no-op
	streams, remaining = cm.RemoveConnection("conn-3")
	assert.Nil(streams)
	assert.Equal(0, remaining)
}

func TestConnectionManager_TrackStream(t *testing.T) {
	assert := assert.New(t)
	store, broker := newTestBroker(t)
	first := store.CreateGame(alice)
	second := store.CreateGame(alice)

	cm := NewConnectionManager()
	cm.AddConnection("conn", alice, nil)

	a, ok := broker.Subscribe(first, alice)
	require.True(t, ok)
	b, ok := broker.Subscribe(second, alice)
	require.True(t, ok)

	assert.Nil(cm.TrackStream("conn", a))
	assert.Nil(cm.TrackStream("conn", b))

	replacement, ok := broker.Subscribe(first, alice)
	require.True(t, ok)
	assert.Same(a, cm.TrackStream("conn", replacement), "the previous stream of the game is handed back")

	cm.UntrackStream("conn", second)
	streams, _ := cm.RemoveConnection("conn")
	assert.Equal([]*Stream{replacement}, streams)
}

func TestConnectionManager_TrackUnknownConnection(t *testing.T) {
	store, broker := newTestBroker(t)
	id := store.CreateGame(alice)
	stream, ok := broker.Subscribe(id, alice)
	require.True(t, ok)

	cm := NewConnectionManager()
	assert.Nil(t, cm.TrackStream("missing", stream))
	cm.UntrackStream("missing", id)
	cm.CloseAll("nothing to close")
}
