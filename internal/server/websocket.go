package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"skull-server/internal/game"
)

// websocketHandler streams state signals. A client subscribes to the games
// it is interested in and fetches its view over HTTP whenever a signal
// arrives.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.opts.AllowedOrigins),
	})
	if err != nil {
		s.log.Warn("failed to open websocket", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connectionID := uuid.NewString()
	log := s.log.With(zap.String("connectionID", connectionID), zap.String("userID", user.ID))
	log.Info("new connection")
	s.connectionManager.AddConnection(connectionID, user, socket)

	defer func() {
		streams, remaining := s.connectionManager.RemoveConnection(connectionID)
		for _, stream := range streams {
			stream.Cancel()
		}
		if remaining == 0 {
			s.broker.UnsubscribeAll(user)
		}
		s.rateLimiter.RemoveConnection(connectionID)
		socket.Close(websocket.StatusNormalClosure, "")
		log.Info("connection closed", zap.Int("streams", len(streams)))
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				log.Info("connection read error", zap.Error(err))
			}
			return
		}

		if msgType != websocket.MessageText {
			log.Debug("ignoring non-text message")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(ctx, socket, "RATE_LIMITED", "Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(ctx, socket, "INVALID_JSON", "Invalid JSON")
			continue
		}
		if err := ValidateMessageType(msg.Type); err != nil {
			code, message := splitError(err)
			s.sendError(ctx, socket, code, message)
			continue
		}

		switch msg.Type {
		case MessagePing:
			s.sendMessage(ctx, socket, ServerMessage{Type: MessagePong, Payload: struct{}{}})
		case MessageSubscribe:
			s.handleSubscribe(ctx, socket, connectionID, user, msg.Payload)
		case MessageUnsubscribe:
			s.handleUnsubscribe(ctx, socket, connectionID, user, msg.Payload)
		}
	}
}

func (s *Server) handleSubscribe(ctx context.Context, socket *websocket.Conn, connectionID string, user game.User, payload json.RawMessage) {
	req, ok := s.decodeGameRequest(ctx, socket, payload)
	if !ok {
		return
	}

	stream, ok := s.broker.Subscribe(req.GameID, user)
	if !ok {
		code, message := splitError(ErrGameNotFound)
		s.sendError(ctx, socket, code, message)
		return
	}
	if previous := s.connectionManager.TrackStream(connectionID, stream); previous != nil {
		previous.Cancel()
	}

	s.sendMessage(ctx, socket, ServerMessage{Type: MessageSubscribed, Payload: req})
	go s.pumpSignals(ctx, socket, stream)
}

func (s *Server) handleUnsubscribe(ctx context.Context, socket *websocket.Conn, connectionID string, user game.User, payload json.RawMessage) {
	req, ok := s.decodeGameRequest(ctx, socket, payload)
	if !ok {
		return
	}

	s.broker.Unsubscribe(req.GameID, user)
	s.connectionManager.UntrackStream(connectionID, req.GameID)
	s.sendMessage(ctx, socket, ServerMessage{Type: MessageUnsubscribed, Payload: req})
}

func (s *Server) decodeGameRequest(ctx context.Context, socket *websocket.Conn, payload json.RawMessage) (GameRequest, bool) {
	var req GameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(ctx, socket, "INVALID_PAYLOAD", "Expected {\"gameId\": ...}")
		return GameRequest{}, false
	}
	if err := ValidateGameID(req.GameID); err != nil {
		code, message := splitError(err)
		s.sendError(ctx, socket, code, message)
		return GameRequest{}, false
	}
	return req, true
}

// pumpSignals forwards stream to the socket until the stream completes or
// the connection goes away.
func (s *Server) pumpSignals(ctx context.Context, socket *websocket.Conn, stream *Stream) {
	for {
		signal, ok := stream.Next(ctx)
		if !ok {
			return
		}
		if err := s.sendMessage(ctx, socket, ServerMessage{Type: MessageSignal, Payload: signal}); err != nil {
			return
		}
	}
}

func (s *Server) sendMessage(ctx context.Context, socket *websocket.Conn, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := socket.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Debug("failed to send message", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) sendError(ctx context.Context, socket *websocket.Conn, code, message string) {
	_ = s.sendMessage(ctx, socket, ServerMessage{
		Type:    MessageError,
		Payload: ErrorMessage{Message: message, Code: code},
	})
}
