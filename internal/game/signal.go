package game

type SignalKind string

const (
	SignalStart  SignalKind = "start"
	SignalUpdate SignalKind = "update"
	SignalEnded  SignalKind = "ended"
)

// StateSignal tells subscribers that the state of a game changed. It carries
// no state itself; clients fetch their view after receiving it.
type StateSignal struct {
	Kind   SignalKind `json:"kind"`
	GameID string     `json:"gameId"`
}

func (s StateSignal) Terminal() bool {
	return s.Kind == SignalEnded
}
