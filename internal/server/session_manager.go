package server

import (
	"slices"
	"sync"
)

// SessionManager remembers, per user, the games they joined in join order.
type SessionManager struct {
	sessions map[string][]string // userID -> gameIDs
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string][]string),
	}
}

func (sm *SessionManager) StoreSession(userID, gameID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if slices.Contains(sm.sessions[userID], gameID) {
		return
	}
	sm.sessions[userID] = append(sm.sessions[userID], gameID)
}

func (sm *SessionManager) GetSessions(userID string) []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.sessions[userID])
}

// RemoveGame forgets gameID for every listed user.
func (sm *SessionManager) RemoveGame(gameID string, userIDs ...string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, userID := range userIDs {
		remaining := slices.DeleteFunc(sm.sessions[userID], func(id string) bool { return id == gameID })
		if len(remaining) == 0 {
			delete(sm.sessions, userID)
			continue
		}
		sm.sessions[userID] = remaining
	}
}

func (sm *SessionManager) Users() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
