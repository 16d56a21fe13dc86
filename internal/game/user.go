package game

// User is an authenticated identity resolved by the transport layer.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

type PlayerInfo struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsInitiator bool   `json:"isInitiator"`
	Index       int    `json:"index"`
}

type SessionInfo struct {
	GameID      string `json:"gameId"`
	IsRunning   bool   `json:"isRunning"`
	IsInitiator bool   `json:"isInitiator"`
}
