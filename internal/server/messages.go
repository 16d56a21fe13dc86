package server

import "encoding/json"

// Client -> server message types.
const (
	MessagePing        = "ping"
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
)

// Server -> client message types.
const (
	MessagePong         = "pong"
	MessageSignal       = "signal"
	MessageSubscribed   = "subscribed"
	MessageUnsubscribed = "unsubscribed"
	MessageError        = "error"
)

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
