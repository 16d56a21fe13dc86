package skull

import "skull-server/internal/game"

// advanceTurn returns the next player after current, in seat order and
// wrapping around, that still owns at least one card. If nobody does it
// returns current.
func advanceTurn(current, numPlayers int, available [][]game.Card) int {
	for step := 1; step <= numPlayers; step++ {
		candidate := (current + step) % numPlayers
		if len(available[candidate]) > 0 {
			return candidate
		}
	}
	return current
}

// nextValidTurn is current itself if that player still owns cards, otherwise
// the result of advanceTurn.
func nextValidTurn(current, numPlayers int, available [][]game.Card) int {
	if len(available[current]) == 0 {
		return advanceTurn(current, numPlayers, available)
	}
	return current
}

func layCard(state *game.GameState, player int, card game.Card) {
	state.CardsInHand[player] = game.RemoveCard(state.CardsInHand[player], card)
	state.CardsOnTable[player] = append(state.CardsOnTable[player], card)
}

func activePlayers(available [][]game.Card) []int {
	var players []int
	for i, cards := range available {
		if len(cards) > 0 {
			players = append(players, i)
		}
	}
	return players
}
