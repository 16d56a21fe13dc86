package skull

import (
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skull-server/internal/game"
)

func TestControllerFullGame(t *testing.T) {
	assert := assert.New(t)
	c := NewController(2, testRules(), firstRand{})

	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(0, game.FirstCard{Card: game.Rose}))
	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(1, game.FirstCard{Card: game.Rose}))
	assert.Equal(game.ModeLay, c.State().CurrentTurnMode)

	assert.Equal(game.Continue{NextTurn: 1}, c.Apply(0, game.Bid{Bid: 1}))
	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(1, game.Bid{Bid: game.Pass}))
	assert.Equal(game.ModeGuess, c.State().CurrentTurnMode)
	assert.Equal(game.RoundEnded{Outcome: game.RoundWon, Player: 0}, c.Apply(0, game.Guess{Player: 0, Card: 0}))

	state := c.State()
	assert.Equal(1, state.RoundCount)
	assert.Equal([]int{1, 0}, state.Points)

	// second round is started by player 1
	c.Apply(0, game.FirstCard{Card: game.Rose})
	assert.Equal(game.Continue{NextTurn: 1}, c.Apply(1, game.FirstCard{Card: game.Rose}))
	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(1, game.Bid{Bid: 1}))
	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(0, game.Bid{Bid: 2}))
	assert.Equal(game.Continue{NextTurn: 0}, c.Apply(0, game.Guess{Player: 0, Card: 0}))
	assert.Equal(game.GameEnded{Winner: 0}, c.Apply(0, game.Guess{Player: 1, Card: 0}))
	assert.Equal([]int{2, 0}, c.State().Points)
}

func TestControllerRejectsUnknownPlayer(t *testing.T) {
	c := NewController(2, testRules(), firstRand{})
	before := c.State()

	mustReject(t, c.Apply(2, game.FirstCard{Card: game.Rose}))
	mustReject(t, c.Apply(-1, game.FirstCard{Card: game.Rose}))
	mustReject(t, c.Apply(0, nil))
	assert.Equal(t, before, c.State())
}

func TestControllerRecoversFromPanic(t *testing.T) {
	state := guessingState()
	state.CardsOnTable[0] = []game.Card{game.Skull}
	c := &Controller{holder: NewStateHolder(state), env: handlerEnv{rules: testRules()}}

	// a skull reveal with no random source panics inside the transition
	bad := mustReject(t, c.Apply(0, game.Guess{Player: 0, Card: 0}))

	assert.Contains(t, bad.Reason, "internal error")
	assert.Equal(t, state, c.State())
}

func TestControllerConcurrentMoves(t *testing.T) {
	c := newTestController(layingState())

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Apply(0, game.Lay{Card: game.Rose}).(game.Continue); ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, []game.Card{game.Rose, game.Rose}, c.State().CardsOnTable[0])
}

// randomMove produces plausible and implausible moves alike.
func randomMove(rng *rand.Rand, state game.GameState) (int, game.Move) {
	player := state.CurrentTurn
	if rng.IntN(4) == 0 {
		player = rng.IntN(state.NumPlayers + 1)
	}
	card := game.Rose
	if rng.IntN(3) == 0 {
		card = game.Skull
	}

	kind := rng.IntN(5)
	if kind == 4 {
		switch state.CurrentTurnMode {
		case game.ModeFirstCard:
			kind = 0
		case game.ModeLay:
			kind = 1
		case game.ModeBid:
			kind = 2
		case game.ModeGuess:
			kind = 3
		}
	}

	switch kind {
	case 0:
		return rng.IntN(state.NumPlayers), game.FirstCard{Card: card}
	case 1:
		return player, game.Lay{Card: card}
	case 2:
		return player, game.Bid{Bid: rng.IntN(state.TableCount()+2) - 1}
	default:
		target := rng.IntN(state.NumPlayers)
		if rng.IntN(2) == 0 {
			target = player % state.NumPlayers
		}
		return player, game.Guess{Player: target, Card: rng.IntN(len(state.CardsOnTable[target]) + 1)}
	}
}

func sortedCards(piles ...[]game.Card) []game.Card {
	var all []game.Card
	for _, pile := range piles {
		all = append(all, pile...)
	}
	slices.Sort(all)
	return all
}

func TestControllerRandomPlayouts(t *testing.T) {
	for seed := range uint64(25) {
		rng := rand.New(rand.NewPCG(seed, seed*31+7))
		players := 2 + rng.IntN(4)
		c := NewController(players, game.DefaultRules(), rng)

		for range 3000 {
			before := c.State()
			player, move := randomMove(rng, before)
			outcome := c.Apply(player, move)
			after := c.State()

			if _, bad := outcome.(game.BadMove); bad {
				require.Equal(t, before, after, "seed %d: rejected %#v changed the state", seed, move)
				continue
			}

			for p := range after.NumPlayers {
				require.Equal(t,
					sortedCards(after.CardsAvailable[p]),
					sortedCards(after.CardsInHand[p], after.CardsOnTable[p]),
					"seed %d: cards of player %d not conserved", seed, p)
			}
			if _, ended := outcome.(game.GameEnded); ended {
				break
			}
			require.Less(t, after.CurrentTurn, after.NumPlayers)
			if after.CurrentTurnMode != game.ModeFirstCard {
				require.NotEmpty(t, after.CardsAvailable[after.CurrentTurn], "seed %d: turn given to an eliminated player", seed)
			}
		}
	}
}
