package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skull-server/internal/game"
)

func TestGame_JoinAssignsSequentialIndexes(t *testing.T) {
	assert := assert.New(t)
	g := newGame("game0001", alice, time.Now)

	assert.NoError(g.Join(bob))
	assert.NoError(g.Join(carol))

	for want, user := range []game.User{alice, bob, carol} {
		index, ok := g.IndexOf(user)
		assert.True(ok)
		assert.Equal(want, index)
	}
	assert.True(g.IsInitiator(alice))
	assert.False(g.IsInitiator(bob))
	assert.False(g.IsMember(admin))
}

func TestGame_JoinRejections(t *testing.T) {
	assert := assert.New(t)
	g := newGame("game0001", alice, time.Now)

	assert.ErrorIs(g.Join(alice), ErrAlreadyMember)
	assert.NoError(g.Join(bob))
	assert.ErrorIs(g.Join(bob), ErrAlreadyMember)

	_, err := g.Start(alice, game.DefaultRules(), firstCardRand{})
	assert.NoError(err)
	assert.ErrorIs(g.Join(carol), ErrAlreadyStarted)
	assert.False(g.IsMember(carol))
}

func TestGame_JoinTouchesEvenWhenRejected(t *testing.T) {
	clock := newFakeClock()
	g := newGame("game0001", alice, clock.Now)

	clock.Advance(time.Minute)
	assert.ErrorIs(t, g.Join(alice), ErrAlreadyMember)

	assert.Equal(t, time.Duration(0), g.idleFor(clock.Now()))
}

func TestGame_Start(t *testing.T) {
	assert := assert.New(t)
	g := newGame("game0001", alice, time.Now)

	_, err := g.Start(alice, game.DefaultRules(), firstCardRand{})
	assert.ErrorIs(err, ErrNotEnoughPlayers)

	require.NoError(t, g.Join(bob))
	_, err = g.Start(bob, game.DefaultRules(), firstCardRand{})
	assert.ErrorIs(err, ErrNotInitiator)
	_, err = g.Start(carol, game.DefaultRules(), firstCardRand{})
	assert.ErrorIs(err, ErrNotMember)
	assert.False(g.IsRunning())

	controller, err := g.Start(alice, game.DefaultRules(), firstCardRand{})
	require.NoError(t, err)
	assert.True(g.IsRunning())
	assert.Equal(2, controller.State().NumPlayers)
	assert.Equal(game.ModeFirstCard, controller.State().CurrentTurnMode)

	_, err = g.Start(alice, game.DefaultRules(), firstCardRand{})
	assert.ErrorIs(err, ErrAlreadyStarted)
}

func TestGame_Roster(t *testing.T) {
	g := newGame("game0001", alice, time.Now)
	require.NoError(t, g.Join(bob))

	assert.Equal(t, []game.PlayerInfo{
		{UserID: "alice", DisplayName: "Alice", IsInitiator: true, Index: 0},
		{UserID: "bob", DisplayName: "Bob", IsInitiator: false, Index: 1},
	}, g.Roster())
}

func TestGame_Expire(t *testing.T) {
	assert := assert.New(t)
	clock := newFakeClock()
	g := newGame("game0001", alice, clock.Now)

	clock.Advance(10 * time.Minute)
	assert.False(g.expire(clock.Now(), 15*time.Minute))

	g.Touch()
	clock.Advance(15 * time.Minute)
	assert.False(g.expire(clock.Now(), 15*time.Minute), "exactly at the limit is not expired")

	clock.Advance(time.Second)
	assert.True(g.expire(clock.Now(), 15*time.Minute))
	assert.False(g.expire(clock.Now(), 15*time.Minute), "already ended")
	assert.False(g.end())
	assert.ErrorIs(g.Join(bob), ErrGameNotFound)
}

func TestGame_ConcurrentJoins(t *testing.T) {
	g := newGame("game0001", alice, time.Now)
	var wg sync.WaitGroup

	for i := range 30 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = g.Join(game.User{ID: string(rune('a' + n)), DisplayName: "player"})
		}(i)
	}
	wg.Wait()

	roster := g.Roster()
	assert.Len(t, roster, 31)
	for i, p := range roster {
		assert.Equal(t, i, p.Index)
		index, ok := g.IndexOf(game.User{ID: p.UserID})
		assert.True(t, ok)
		assert.Equal(t, i, index)
	}
}
