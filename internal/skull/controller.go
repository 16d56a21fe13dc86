package skull

import (
	"fmt"

	"skull-server/internal/game"
)

// Controller runs the state machine of one started game.
type Controller struct {
	holder *StateHolder[game.GameState]
	env    handlerEnv
}

func NewController(numPlayers int, rules game.Rules, rng game.RandomSource) *Controller {
	return &Controller{
		holder: NewStateHolder(game.NewGameState(numPlayers, rules)),
		env:    handlerEnv{rules: rules, rng: rng},
	}
}

// State returns the full, unfiltered state.
func (c *Controller) State() game.GameState {
	return c.holder.Get()
}

// Apply validates and applies move on behalf of player. Validation and the
// transition happen under the holder lock, so concurrent moves on the same
// game are serialized.
func (c *Controller) Apply(player int, move game.Move) game.MoveOutcome {
	return Modify(c.holder, func(state game.GameState) (next game.GameState, outcome game.MoveOutcome) {
		defer func() {
			if r := recover(); r != nil {
				next, outcome = state, game.Rejectf("internal error while applying %s: %v", describe(move), r)
			}
		}()

		if player < 0 || player >= state.NumPlayers {
			return state, game.Rejectf("player %d is not seated in this game", player)
		}
		return c.dispatch(state, player, move)
	})
}

func (c *Controller) dispatch(state game.GameState, player int, move game.Move) (game.GameState, game.MoveOutcome) {
	switch m := move.(type) {
	case game.FirstCard:
		return handle[game.FirstCard](firstCardHandler{}, state, player, m, c.env)
	case game.Lay:
		return handle[game.Lay](layHandler{}, state, player, m, c.env)
	case game.Bid:
		return handle[game.Bid](bidHandler{}, state, player, m, c.env)
	case game.Guess:
		return handle[game.Guess](guessHandler{}, state, player, m, c.env)
	default:
		return state, game.Rejectf("unsupported move %s", describe(move))
	}
}

func describe(move game.Move) string {
	if move == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s move", move.Type())
}
