package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skull-server/internal/game"
)

func TestNewGameState(t *testing.T) {
	assert := assert.New(t)

	state := game.NewGameState(3, game.DefaultRules())

	assert.Equal(3, state.NumPlayers)
	assert.Equal(0, state.RoundCount)
	assert.Equal(2, state.LastRoundBeginner, "first round should begin with player 0")
	assert.Equal(game.ModeFirstCard, state.CurrentTurnMode)
	for i := range 3 {
		assert.Len(state.CardsAvailable[i], 4)
		assert.Equal(state.CardsAvailable[i], state.CardsInHand[i])
		assert.Empty(state.CardsOnTable[i])
		assert.Equal(0, state.Bids[i])
		assert.Equal(0, state.Points[i])
	}
	assert.Empty(state.RevealedCards)
}

func TestCloneIsDeep(t *testing.T) {
	assert := assert.New(t)

	state := game.NewGameState(2, game.DefaultRules())
	clone := state.Clone()

	clone.CardsInHand[0] = clone.CardsInHand[0][1:]
	clone.Bids[1] = 3
	clone.Points[0] = 1
	clone.RevealedCards = append(clone.RevealedCards, game.Reveal{Player: 1, Card: 0})

	assert.Len(state.CardsInHand[0], 4)
	assert.Equal(0, state.Bids[1])
	assert.Equal(0, state.Points[0])
	assert.Empty(state.RevealedCards)
}

func TestNextRoundKeepsScoresAndDecks(t *testing.T) {
	assert := assert.New(t)

	state := game.NewGameState(2, game.DefaultRules())
	state.LastRoundBeginner = 1
	state.CardsOnTable[0] = []game.Card{game.Rose}
	state.Bids[0] = 1
	state.RevealedCards = []game.Reveal{{Player: 0, Card: 0}}

	available := state.Clone().CardsAvailable
	available[1] = []game.Card{game.Rose, game.Rose}

	next := state.NextRound([]int{1, 0}, available)

	assert.Equal(1, next.RoundCount)
	assert.Equal(1, next.LastRoundBeginner)
	assert.Equal([]int{1, 0}, next.Points)
	assert.Equal([]game.Card{game.Rose, game.Rose}, next.CardsInHand[1])
	assert.Empty(next.CardsOnTable[0])
	assert.Equal([]int{0, 0}, next.Bids)
	assert.Empty(next.RevealedCards)
	assert.Equal(game.ModeFirstCard, next.CurrentTurnMode)
}

func TestRemoveCard(t *testing.T) {
	cards := []game.Card{game.Rose, game.Skull, game.Rose}

	assert.Equal(t, []game.Card{game.Skull, game.Rose}, game.RemoveCard(cards, game.Rose))
	assert.Equal(t, []game.Card{game.Rose, game.Rose}, game.RemoveCard(cards, game.Skull))
	assert.Len(t, cards, 3, "input must not be modified")
}
