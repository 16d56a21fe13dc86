package game

import (
	"encoding/json"
	"fmt"
)

type MoveType string

const (
	MoveFirstCard MoveType = "first_card"
	MoveLay       MoveType = "lay"
	MoveBid       MoveType = "bid"
	MoveGuess     MoveType = "guess"
)

// Move is the closed set of player actions: FirstCard, Lay, Bid and Guess.
type Move interface {
	Type() MoveType
	isMove()
}

type FirstCard struct {
	Card Card `json:"card"`
}

type Lay struct {
	Card Card `json:"card"`
}

// Bid raises the current bid, or passes when Bid is Pass.
type Bid struct {
	Bid int `json:"bid"`
}

// Guess reveals card number Card from the table pile of Player.
type Guess struct {
	Player int `json:"player"`
	Card   int `json:"card"`
}

func (FirstCard) Type() MoveType { return MoveFirstCard }
func (Lay) Type() MoveType       { return MoveLay }
func (Bid) Type() MoveType       { return MoveBid }
func (Guess) Type() MoveType     { return MoveGuess }

func (FirstCard) isMove() {}
func (Lay) isMove()       {}
func (Bid) isMove()       {}
func (Guess) isMove()     {}

type moveEnvelope struct {
	Type MoveType `json:"type"`
}

// DecodeMove parses a move from its JSON envelope, e.g. {"type":"bid","bid":2}.
func DecodeMove(data []byte) (Move, error) {
	var env moveEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("INVALID_MOVE: %w", err)
	}

	var (
		move Move
		err  error
	)
	switch env.Type {
	case MoveFirstCard:
		var m FirstCard
		err = json.Unmarshal(data, &m)
		move = m
	case MoveLay:
		var m Lay
		err = json.Unmarshal(data, &m)
		move = m
	case MoveBid:
		var m Bid
		err = json.Unmarshal(data, &m)
		move = m
	case MoveGuess:
		var m Guess
		err = json.Unmarshal(data, &m)
		move = m
	default:
		return nil, fmt.Errorf("INVALID_MOVE: unknown move type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("INVALID_MOVE: %w", err)
	}
	return move, nil
}

// EncodeMove is the inverse of DecodeMove.
func EncodeMove(m Move) ([]byte, error) {
	switch m := m.(type) {
	case FirstCard:
		return json.Marshal(struct {
			Type MoveType `json:"type"`
			FirstCard
		}{m.Type(), m})
	case Lay:
		return json.Marshal(struct {
			Type MoveType `json:"type"`
			Lay
		}{m.Type(), m})
	case Bid:
		return json.Marshal(struct {
			Type MoveType `json:"type"`
			Bid
		}{m.Type(), m})
	case Guess:
		return json.Marshal(struct {
			Type MoveType `json:"type"`
			Guess
		}{m.Type(), m})
	default:
		return nil, fmt.Errorf("INVALID_MOVE: unsupported move %T", m)
	}
}

type RoundOutcome string

const (
	RoundWon  RoundOutcome = "won"
	RoundLost RoundOutcome = "lost"
)

// MoveOutcome is the result of submitting a move: BadMove, Continue,
// RoundEnded or GameEnded.
type MoveOutcome interface {
	isOutcome()
}

type BadMove struct {
	Reason string `json:"reason"`
}

type Continue struct {
	NextTurn int `json:"nextTurn"`
}

type RoundEnded struct {
	Outcome RoundOutcome `json:"outcome"`
	Player  int          `json:"player"`
}

type GameEnded struct {
	Winner int `json:"winner"`
}

func (BadMove) isOutcome()    {}
func (Continue) isOutcome()   {}
func (RoundEnded) isOutcome() {}
func (GameEnded) isOutcome()  {}

func Rejectf(format string, args ...any) BadMove {
	return BadMove{Reason: fmt.Sprintf(format, args...)}
}

func (b BadMove) MarshalJSON() ([]byte, error) {
	type plain BadMove
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"bad_move", plain(b)})
}

func (c Continue) MarshalJSON() ([]byte, error) {
	type plain Continue
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"continue", plain(c)})
}

func (r RoundEnded) MarshalJSON() ([]byte, error) {
	type plain RoundEnded
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"round_ended", plain(r)})
}

func (g GameEnded) MarshalJSON() ([]byte, error) {
	type plain GameEnded
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"game_ended", plain(g)})
}
