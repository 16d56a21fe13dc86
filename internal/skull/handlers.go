package skull

import (
	"slices"

	"skull-server/internal/game"
)

// moveHandler validates and applies one kind of move. check never mutates;
// apply is only called on a state check accepted and returns a new value.
type moveHandler[M game.Move] interface {
	check(state game.GameState, player int, move M) *game.BadMove
	apply(state game.GameState, player int, move M, env handlerEnv) (game.GameState, game.MoveOutcome)
}

type handlerEnv struct {
	rules game.Rules
	rng   game.RandomSource
}

func handle[M game.Move](h moveHandler[M], state game.GameState, player int, move M, env handlerEnv) (game.GameState, game.MoveOutcome) {
	if bad := h.check(state, player, move); bad != nil {
		return state, *bad
	}
	return h.apply(state, player, move, env)
}

func reject(format string, args ...any) *game.BadMove {
	bad := game.Rejectf(format, args...)
	return &bad
}

type firstCardHandler struct{}

func (firstCardHandler) check(state game.GameState, player int, move game.FirstCard) *game.BadMove {
	if state.CurrentTurnMode != game.ModeFirstCard {
		return reject("cannot lay first card, game is in %s mode", state.CurrentTurnMode)
	}
	if len(state.CardsAvailable[player]) == 0 {
		return reject("cannot lay first card, player has no cards left")
	}
	if len(state.CardsOnTable[player]) > 0 {
		return reject("cannot lay first card, was already laid by player")
	}
	if !game.HasCard(state.CardsInHand[player], move.Card) {
		return reject("cannot lay first card, '%s' is not in hand of player", move.Card)
	}
	return nil
}

func (firstCardHandler) apply(state game.GameState, player int, move game.FirstCard, _ handlerEnv) (game.GameState, game.MoveOutcome) {
	next := state.Clone()
	layCard(&next, player, move.Card)

	everyoneLaid := true
	for _, p := range activePlayers(next.CardsAvailable) {
		if len(next.CardsOnTable[p]) == 0 {
			everyoneLaid = false
			break
		}
	}

	if everyoneLaid {
		beginner := (state.LastRoundBeginner + 1) % state.NumPlayers
		next.CurrentTurnMode = game.ModeLay
		next.CurrentTurn = nextValidTurn(beginner, next.NumPlayers, next.CardsAvailable)
		next.LastRoundBeginner = beginner
	}

	return next, game.Continue{NextTurn: next.CurrentTurn}
}

type layHandler struct{}

func (layHandler) check(state game.GameState, player int, move game.Lay) *game.BadMove {
	if state.CurrentTurnMode != game.ModeLay {
		return reject("cannot lay card, game is in %s mode", state.CurrentTurnMode)
	}
	if state.CurrentTurn != player {
		return reject("cannot lay card, it is not player's turn")
	}
	if !game.HasCard(state.CardsInHand[player], move.Card) {
		return reject("cannot lay card, '%s' is not in hand of player", move.Card)
	}
	return nil
}

func (layHandler) apply(state game.GameState, player int, move game.Lay, _ handlerEnv) (game.GameState, game.MoveOutcome) {
	next := state.Clone()
	layCard(&next, player, move.Card)
	next.CurrentTurn = advanceTurn(state.CurrentTurn, state.NumPlayers, state.CardsAvailable)

	return next, game.Continue{NextTurn: next.CurrentTurn}
}

type bidHandler struct{}

func (bidHandler) check(state game.GameState, player int, move game.Bid) *game.BadMove {
	if state.CurrentTurnMode != game.ModeLay && state.CurrentTurnMode != game.ModeBid {
		return reject("cannot bid, game is in %s mode", state.CurrentTurnMode)
	}
	if state.CurrentTurn != player {
		return reject("cannot bid, it is not player's turn")
	}
	if move.Bid == 0 || move.Bid < game.Pass {
		return reject("cannot bid %d, bids must be positive or %d to pass", move.Bid, game.Pass)
	}
	if move.Bid == game.Pass && state.MaxBid() < 1 {
		return reject("cannot pass before any bid was placed")
	}
	if move.Bid != game.Pass && move.Bid <= state.MaxBid() {
		return reject("cannot bid %d as it is not higher than the current highest bid", move.Bid)
	}
	if move.Bid > state.TableCount() {
		return reject("cannot bid %d, only %d cards are on the table", move.Bid, state.TableCount())
	}
	if state.Bids[player] == game.Pass && move.Bid != game.Pass {
		return reject("cannot bid anymore because player already passed")
	}
	return nil
}

func (bidHandler) apply(state game.GameState, player int, move game.Bid, _ handlerEnv) (game.GameState, game.MoveOutcome) {
	next := state.Clone()
	next.Bids[player] = move.Bid

	guesser := -1
	if move.Bid >= state.TableCount() {
		guesser = player
	} else {
		bidders := slices.DeleteFunc(activePlayers(next.CardsAvailable), func(p int) bool {
			return next.Bids[p] == game.Pass
		})
		if len(bidders) == 1 {
			guesser = bidders[0]
		}
	}

	if guesser >= 0 {
		next.CurrentTurnMode = game.ModeGuess
		next.CurrentTurn = guesser
	} else {
		next.CurrentTurnMode = game.ModeBid
		next.CurrentTurn = advanceTurn(state.CurrentTurn, state.NumPlayers, state.CardsAvailable)
	}

	return next, game.Continue{NextTurn: next.CurrentTurn}
}

type guessHandler struct{}

func (guessHandler) check(state game.GameState, player int, move game.Guess) *game.BadMove {
	if state.CurrentTurnMode != game.ModeGuess {
		return reject("cannot guess, game is in %s mode", state.CurrentTurnMode)
	}
	if state.CurrentTurn != player {
		return reject("cannot guess, it is not player's turn")
	}
	if move.Player < 0 || move.Player >= state.NumPlayers ||
		move.Card < 0 || move.Card >= len(state.CardsOnTable[move.Player]) {
		return reject("cannot guess, player '%d' inexistent or has not laid card no. %d", move.Player, move.Card)
	}
	if state.IsRevealed(move.Player, move.Card) {
		return reject("cannot guess, card is already revealed")
	}
	if move.Player != player && state.RevealedOf(player) < len(state.CardsOnTable[player]) {
		return reject("cannot guess, player must reveal own cards first")
	}
	return nil
}

func (guessHandler) apply(state game.GameState, player int, move game.Guess, env handlerEnv) (game.GameState, game.MoveOutcome) {
	revealed := append(slices.Clone(state.RevealedCards), game.Reveal{Player: move.Player, Card: move.Card})

	switch state.CardsOnTable[move.Player][move.Card] {
	case game.Rose:
		if len(revealed) < state.Bids[player] {
			next := state.Clone()
			next.RevealedCards = revealed
			return next, game.Continue{NextTurn: player}
		}

		points := slices.Clone(state.Points)
		points[player]++
		next := state.NextRound(points, state.CardsAvailable)
		if points[player] >= env.rules.WinPoints {
			return next, game.GameEnded{Winner: player}
		}
		return next, game.RoundEnded{Outcome: game.RoundWon, Player: player}

	default:
		available := state.Clone().CardsAvailable
		lost := env.rng.IntN(len(available[player]))
		available[player] = slices.Delete(available[player], lost, lost+1)
		next := state.NextRound(state.Points, available)

		if remaining := activePlayers(available); len(remaining) == 1 {
			return next, game.GameEnded{Winner: remaining[0]}
		}
		return next, game.RoundEnded{Outcome: game.RoundLost, Player: player}
	}
}
