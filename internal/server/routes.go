package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"skull-server/internal/game"
)

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 100
	maxMoveBody         = 4 << 10
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /login", s.loginHandler)

	mux.Handle("POST /newgame", s.requireUser(s.newGameHandler))
	mux.Handle("POST /join/{gameid}", s.requireUser(s.joinGameHandler))
	mux.Handle("POST /startgame/{gameid}", s.requireUser(s.startGameHandler))
	mux.Handle("POST /move/{gameid}", s.requireUser(s.moveHandler))
	mux.Handle("GET /state/{gameid}", s.requireUser(s.stateHandler))
	mux.Handle("GET /players/{gameid}", s.requireUser(s.playersHandler))
	mux.Handle("GET /games", s.requireUser(s.gamesHandler))
	mux.Handle("GET /masterstate/{gameid}", s.requireAdmin(s.masterStateHandler))
	mux.Handle("GET /results", s.requireAdmin(s.resultsHandler))

	mux.Handle("GET /ws", s.requireUser(s.websocketHandler))

	return s.corsMiddleware(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Games:         s.store.Count(),
		Connections:   s.connectionManager.Count(),
		Subscriptions: s.broker.Registrations(),
	})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid login payload")
		return
	}

	token, user, err := s.auth.Login(req.ID, req.Password)
	if err != nil {
		s.log.Info("login failed", zap.String("userID", req.ID))
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Unknown user or wrong password")
		return
	}

	s.log.Info("user logged in", zap.String("userID", user.ID))
	s.writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (s *Server) newGameHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := s.store.CreateGame(user)
	s.writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: id})
}

func (s *Server) joinGameHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	if err := s.store.JoinGame(gameID, user); err != nil {
		s.writeStoreError(w, err)
		return
	}

	roster, _ := s.store.Roster(gameID, user)
	index := len(roster) - 1
	for _, p := range roster {
		if p.UserID == user.ID {
			index = p.Index
		}
	}
	s.writeJSON(w, http.StatusOK, JoinGameResponse{GameID: gameID, PlayerIndex: index})
}

func (s *Server) startGameHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	if err := s.store.StartGame(gameID, user); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StartGameResponse{GameID: gameID, Started: true})
}

// moveHandler answers with the move outcome. Illegal moves are a bad_move
// outcome with status 200; only lookup failures are HTTP errors.
func (s *Server) moveHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMoveBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Failed to read move")
		return
	}
	move, err := game.DecodeMove(body)
	if err != nil {
		code, message := splitError(err)
		writeError(w, http.StatusBadRequest, code, message)
		return
	}

	outcome, err := s.store.SubmitMove(gameID, user, move)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	view, ok := s.store.PlayerView(gameID, user)
	if !ok {
		writeError(w, http.StatusNotFound, "STATE_UNAVAILABLE", "Game not found, not started, or user is not part of it")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) masterStateHandler(w http.ResponseWriter, r *http.Request) {
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	state, ok := s.store.FullState(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "STATE_UNAVAILABLE", "Game not found or not started")
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) playersHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	gameID, ok := s.gameID(w, r)
	if !ok {
		return
	}

	roster, ok := s.store.Roster(gameID, user)
	if !ok {
		writeError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found or user is not part of it")
		return
	}
	s.writeJSON(w, http.StatusOK, roster)
}

func (s *Server) gamesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, s.store.GamesFor(user))
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		code, message := splitError(ErrArchiveDisabled)
		writeError(w, http.StatusServiceUnavailable, code, message)
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxResultsLimit)
	}

	results, err := s.results.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list results", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ARCHIVE_ERROR", "Failed to read results")
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) gameID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("gameid")
	if err := ValidateGameID(id); err != nil {
		code, message := splitError(err)
		writeError(w, http.StatusBadRequest, code, message)
		return "", false
	}
	return id, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotInitiator):
		status = http.StatusForbidden
	case errors.Is(err, ErrNotStarted), errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrNotEnoughPlayers):
		status = http.StatusConflict
	}
	code, message := splitError(err)
	writeError(w, status, code, message)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorMessage{Message: message, Code: code})
}

// splitError separates a "CODE: message" error into its parts.
func splitError(err error) (string, string) {
	code, message, ok := strings.Cut(err.Error(), ": ")
	if !ok || code == "" || strings.ToUpper(code) != code || strings.Contains(code, " ") {
		return "", err.Error()
	}
	return code, message
}
