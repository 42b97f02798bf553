package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is the envelope for every outbound game notification.
type Event struct {
	ID        string          `json:"id"`
	GameCode  string          `json:"game_code"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Type identifies the kind of game event.
type Type string

const (
	TypeConnected     Type = "connected"
	TypeGameState     Type = "game_state"
	TypePlayerJoined  Type = "player_joined"
	TypeGameStarted   Type = "game_started"
	TypePrivateRole   Type = "private_role"
	TypeActionResult  Type = "action_result"
	TypeElimination   Type = "elimination"
	TypeGameOver      Type = "game_over"
	TypeGameRestarted Type = "game_restarted"
	TypeError         Type = "error"
)

// New builds an event envelope around the given payload.
func New(gameCode string, t Type, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs; marshal failure means a programming bug.
		log.Error().Err(err).Str("type", string(t)).Msg("failed to marshal event payload")
		data = []byte("{}")
	}
	return Event{
		ID:        uuid.New().String(),
		GameCode:  gameCode,
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// PlayerView is the public projection of a single player. Role is populated
// only once the player is dead; a living player's role never appears here.
type PlayerView struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	Role  string `json:"role,omitempty"`
}

// GameStatePayload is sent to a connection when it (re)joins a room.
type GameStatePayload struct {
	Players      []PlayerView `json:"players"`
	Phase        string       `json:"phase"`
	TimerSeconds int          `json:"timer"`
	Round        int          `json:"round"`
}

// PlayerJoinedPayload announces a roster change while in the lobby.
type PlayerJoinedPayload struct {
	PlayerName string       `json:"player_name"`
	Players    []PlayerView `json:"players"`
	Phase      string       `json:"phase"`
}

// GameStartedPayload announces the lobby -> night transition.
type GameStartedPayload struct {
	Phase        string       `json:"phase"`
	Players      []PlayerView `json:"players"`
	TimerSeconds int          `json:"timer"`
}

// PrivateRolePayload delivers a player their own role. Addressed only.
type PrivateRolePayload struct {
	Role string `json:"role"`
}

// ActionResultPayload confirms a submission or delivers an investigation
// verdict. Addressed only.
type ActionResultPayload struct {
	Player string `json:"player"`
	Result string `json:"result"`
}

// EliminationPayload announces a death with the revealed role.
type EliminationPayload struct {
	Player string `json:"player"`
	Role   string `json:"role"`
	Round  int    `json:"round"`
}

// GameOverPayload announces the winning faction.
type GameOverPayload struct {
	Winner  string       `json:"winner"`
	Players []PlayerView `json:"players"`
}

// GameRestartedPayload announces the return to the lobby after a restart.
type GameRestartedPayload struct {
	Phase   string       `json:"phase"`
	Players []PlayerView `json:"players"`
}

// ErrorPayload carries a rejected command's reason back to the submitter.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ConnectedPayload greets a freshly upgraded connection.
type ConnectedPayload struct {
	Message string `json:"message"`
}
