package server

import (
	"sync"

	"github.com/coder/websocket"

	"skull-server/internal/game"
)

type PlayerConnection struct {
	User    game.User
	conn    *websocket.Conn
	streams map[string]*Stream // gameID -> stream opened on this connection
}

// ConnectionManager tracks open websocket connections and the signal streams
// each of them opened.
type ConnectionManager struct {
	connections map[string]*PlayerConnection // connectionID -> connection
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*PlayerConnection),
	}
}

func (cm *ConnectionManager) AddConnection(id string, user game.User, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = &PlayerConnection{
		User:    user,
		conn:    conn,
		streams: make(map[string]*Stream),
	}
}

// RemoveConnection forgets id and returns the streams it opened together
// with the number of connections its user still has open.
func (cm *ConnectionManager) RemoveConnection(id string) ([]*Stream, int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	pc, ok := cm.connections[id]
	if !ok {
		return nil, 0
	}
	delete(cm.connections, id)

	streams := make([]*Stream, 0, len(pc.streams))
	for _, stream := range pc.streams {
		streams = append(streams, stream)
	}
	remaining := 0
	for _, other := range cm.connections {
		if other.User.ID == pc.User.ID {
			remaining++
		}
	}
	return streams, remaining
}

// TrackStream records stream as opened on connection id, replacing and
// returning a previous stream for the same game.
func (cm *ConnectionManager) TrackStream(id string, stream *Stream) *Stream {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	pc, ok := cm.connections[id]
	if !ok {
		return nil
	}
	previous := pc.streams[stream.GameID]
	pc.streams[stream.GameID] = stream
	return previous
}

func (cm *ConnectionManager) UntrackStream(id, gameID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if pc, ok := cm.connections[id]; ok {
		delete(pc.streams, gameID)
	}
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes every tracked socket with a going-away status.
func (cm *ConnectionManager) CloseAll(reason string) {
	cm.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(cm.connections))
	for _, pc := range cm.connections {
		if pc.conn != nil {
			conns = append(conns, pc.conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, reason)
	}
}
