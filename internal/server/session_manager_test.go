package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionManager_StoreKeepsJoinOrder(t *testing.T) {
	assert := assert.New(t)
	sm := NewSessionManager()

	sm.StoreSession("alice", "game0001")
	sm.StoreSession("alice", "game0002")
	sm.StoreSession("alice", "game0001")
	sm.StoreSession("bob", "game0002")

	assert.Equal([]string{"game0001", "game0002"}, sm.GetSessions("alice"))
	assert.Equal([]string{"game0002"}, sm.GetSessions("bob"))
	assert.Empty(sm.GetSessions("carol"))
	assert.Equal(2, sm.Users())
}

func TestSessionManager_GetReturnsCopy(t *testing.T) {
	sm := NewSessionManager()
	sm.StoreSession("alice", "game0001")

	sessions := sm.GetSessions("alice")
	sessions[0] = "mutated!"

	assert.Equal(t, []string{"game0001"}, sm.GetSessions("alice"))
}

func TestSessionManager_RemoveGame(t *testing.T) {
	assert := assert.New(t)
	sm := NewSessionManager()
	sm.StoreSession("alice", "game0001")
	sm.StoreSession("alice", "game0002")
	sm.StoreSession("bob", "game0001")

	sm.RemoveGame("game0001", "alice", "bob")

	assert.Equal([]string{"game0002"}, sm.GetSessions("alice"))
	assert.Empty(sm.GetSessions("bob"))
	assert.Equal(1, sm.Users())

	// removing again is harmless
	sm.RemoveGame("game0001", "alice", "bob")
	assert.Equal([]string{"game0002"}, sm.GetSessions("alice"))
}

// Concurrent writers for different users must not lose entries
func TestSessionManager_ConcurrentAccess(t *testing.T) {
	sm := NewSessionManager()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			for g := range 10 {
				sm.StoreSession(fmt.Sprintf("user-%d", user), fmt.Sprintf("game%04d", g))
				sm.GetSessions(fmt.Sprintf("user-%d", user))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, sm.Users())
	assert.Len(t, sm.GetSessions("user-7"), 10)
}
