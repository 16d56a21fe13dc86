package skull

import (
	"slices"

	"skull-server/internal/game"
)

// PlayerView filters the current state for one player. Returns false if the
// index is not seated in this game.
func (c *Controller) PlayerView(player int) (game.PlayerGameState, bool) {
	state := c.holder.Get()
	if player < 0 || player >= state.NumPlayers {
		return game.PlayerGameState{}, false
	}
	return viewFor(state, player), true
}

func viewFor(state game.GameState, player int) game.PlayerGameState {
	revealed := make(map[int][]game.RevealedCard)
	for _, r := range state.RevealedCards {
		revealed[r.Player] = append(revealed[r.Player], game.RevealedCard{
			Index: r.Card,
			Card:  state.CardsOnTable[r.Player][r.Card],
		})
	}

	return game.PlayerGameState{
		PlayerIndex:         player,
		NumPlayers:          state.NumPlayers,
		RoundCount:          state.RoundCount,
		LastRoundBeginner:   state.LastRoundBeginner,
		CurrentTurn:         state.CurrentTurn,
		CurrentTurnMode:     state.CurrentTurnMode,
		OwnCardsAvailable:   slices.Clone(state.CardsAvailable[player]),
		CardsAvailableCount: counts(state.CardsAvailable),
		OwnCardsOnTable:     slices.Clone(state.CardsOnTable[player]),
		CardsOnTableCount:   counts(state.CardsOnTable),
		OwnCardsInHand:      slices.Clone(state.CardsInHand[player]),
		CardsInHandCount:    counts(state.CardsInHand),
		Bids:                slices.Clone(state.Bids),
		RevealedCards:       revealed,
		Points:              slices.Clone(state.Points),
	}
}

func counts(piles [][]game.Card) []int {
	out := make([]int, len(piles))
	for i, pile := range piles {
		out[i] = len(pile)
	}
	return out
}
