package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/events"
	"github.com/nightfall-games/mafia/internal/game"
	"github.com/nightfall-games/mafia/internal/registry"
)

// Gateway ties the HTTP/WebSocket surface to the room registry.
type Gateway struct {
	registry *registry.Registry
	cm       *ConnectionManager
}

// NewGateway wires a gateway and installs its command router on the
// connection manager.
func NewGateway(reg *registry.Registry, cm *ConnectionManager) *Gateway {
	g := &Gateway{registry: reg, cm: cm}
	cm.onCommand = g.handleCommand
	return g
}

// RegisterRoutes registers the HTTP endpoints with the mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/create_game", g.handleCreateGame)
	mux.HandleFunc("/join_game", g.handleJoinGame)
	mux.HandleFunc("/ws", g.handleWebSocket)
}

type createGameRequest struct {
	PlayerName string `json:"player_name"`
}

type createGameResponse struct {
	GameCode string `json:"game_code"`
}

type joinGameRequest struct {
	GameCode   string `json:"game_code"`
	PlayerName string `json:"player_name"`
}

type statusResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Players []string `json:"players,omitempty"`
}

func (g *Gateway) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, _, err := g.registry.Create(req.PlayerName)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, createGameResponse{GameCode: code})
}

func (g *Gateway) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := g.registry.Join(req.GameCode, req.PlayerName)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Players: session.PlayerNames()})
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.cm.UpgradeConnection(w, r)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}
	g.cm.SendDirect(conn, events.New("", events.TypeConnected, events.ConnectedPayload{
		Message: "Connected to server",
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, statusResponse{Status: "error", Message: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidName),
		errors.Is(err, game.ErrDuplicateName),
		errors.Is(err, game.ErrGameFull),
		errors.Is(err, game.ErrGameAlreadyStarted),
		errors.Is(err, game.ErrInsufficientPlayers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
