package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/events"
	"github.com/nightfall-games/mafia/internal/game"
)

// Command types a client may send over the WebSocket.
const (
	CmdJoinRoom    = "join_room"
	CmdLeaveRoom   = "leave_room"
	CmdStartGame   = "start_game"
	CmdRestartGame = "restart_game"
	CmdNightAction = "night_action"
	CmdDayVote     = "day_vote"
)

// ClientCommand is the inbound message envelope. GameCode and Player are only
// read by join_room; afterwards the connection's binding is the identity, so
// a client cannot act on another player's behalf.
type ClientCommand struct {
	Type     string `json:"type"`
	GameCode string `json:"game_code,omitempty"`
	Player   string `json:"player,omitempty"`
	Action   string `json:"action,omitempty"`
	Target   string `json:"target,omitempty"`
}

// handleCommand routes one inbound WebSocket message. Rejections are sent
// back to the submitting connection as error events and never broadcast.
func (g *Gateway) handleCommand(conn *Connection, raw []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		g.commandError(conn, "malformed command")
		return
	}

	var err error
	switch cmd.Type {
	case CmdJoinRoom:
		err = g.joinRoom(conn, cmd.GameCode, cmd.Player)
	case CmdLeaveRoom:
		g.cm.Unbind(conn)
		return
	case CmdStartGame:
		err = g.withSession(conn, func(s *game.Session) error {
			return s.Start(conn.PlayerName)
		})
	case CmdRestartGame:
		err = g.withSession(conn, func(s *game.Session) error {
			return s.Restart(conn.PlayerName)
		})
	case CmdNightAction:
		err = g.withSession(conn, func(s *game.Session) error {
			return s.SubmitNightAction(conn.PlayerName, game.ActionKind(cmd.Action), cmd.Target)
		})
	case CmdDayVote:
		err = g.withSession(conn, func(s *game.Session) error {
			return s.SubmitDayVote(conn.PlayerName, cmd.Target)
		})
	default:
		log.Debug().Str("connection_id", conn.ID).Str("type", cmd.Type).Msg("unknown command type, ignoring")
		return
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", conn.ID).
			Str("game_code", conn.GameCode).
			Str("player", conn.PlayerName).
			Str("type", cmd.Type).
			Msg("command rejected")
		g.commandError(conn, err.Error())
	}
}

// joinRoom binds the connection to a roster entry and replies with the public
// game state. Mid-game reconnects also get their role back privately.
func (g *Gateway) joinRoom(conn *Connection, gameCode, player string) error {
	session, err := g.registry.Lookup(gameCode)
	if err != nil {
		return err
	}

	canonical := ""
	for _, name := range session.PlayerNames() {
		if game.NormalizeName(name) == game.NormalizeName(player) {
			canonical = name
			break
		}
	}
	if canonical == "" {
		return game.ErrUnknownPlayer
	}

	g.cm.Bind(conn, gameCode, canonical)
	g.cm.SendDirect(conn, events.New(gameCode, events.TypeGameState, session.Snapshot()))
	if role, err := session.RoleOf(canonical); err == nil {
		g.cm.SendDirect(conn, events.New(gameCode, events.TypePrivateRole, events.PrivateRolePayload{
			Role: string(role.Kind),
		}))
	}
	return nil
}

// withSession runs fn against the session the connection is bound to.
func (g *Gateway) withSession(conn *Connection, fn func(*game.Session) error) error {
	if conn.GameCode == "" {
		return game.ErrGameNotFound
	}
	session, err := g.registry.Lookup(conn.GameCode)
	if err != nil {
		return err
	}
	return fn(session)
}

func (g *Gateway) commandError(conn *Connection, message string) {
	g.cm.SendDirect(conn, events.New(conn.GameCode, events.TypeError, events.ErrorPayload{Message: message}))
}
