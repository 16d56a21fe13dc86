package server

import "skull-server/internal/game"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
// tygo:generate
type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ============================================================================
// LOGIN (POST /login)
// ============================================================================
// tygo:generate
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// tygo:generate
type LoginResponse struct {
	Token string    `json:"token"`
	User  game.User `json:"user"`
}

// ============================================================================
// CREATE / JOIN / START (POST /newgame, /join/{gameid}, /startgame/{gameid})
// ============================================================================
// tygo:generate
type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

// tygo:generate
type JoinGameResponse struct {
	GameID      string `json:"gameId"`
	PlayerIndex int    `json:"playerIndex"`
}

// tygo:generate
type StartGameResponse struct {
	GameID  string `json:"gameId"`
	Started bool   `json:"started"`
}

// ============================================================================
// SUBSCRIBE / UNSUBSCRIBE (websocket)
// ============================================================================
// tygo:generate
type GameRequest struct {
	GameID string `json:"gameId"`
}

// ============================================================================
// HEALTH (GET /health)
// ============================================================================
// tygo:generate
type HealthResponse struct {
	Status        string `json:"status"`
	Games         int    `json:"games"`
	Connections   int    `json:"connections"`
	Subscriptions int    `json:"subscriptions"`
}
