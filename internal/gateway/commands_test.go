package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightfall-games/mafia/internal/events"
)

func newTestConn(cm *ConnectionManager) *Connection {
	return &Connection{
		ID:          "test-conn",
		Send:        make(chan []byte, 16),
		Manager:     cm,
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
}

func recvEvent(t *testing.T, conn *Connection) events.Event {
	t.Helper()
	select {
	case data := <-conn.Send:
		var ev events.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func TestJoinRoomBindsAndSendsState(t *testing.T) {
	g, reg := newTestGateway()
	code, _, err := reg.Create("host")
	require.NoError(t, err)
	_, err = reg.Join(code, "guest")
	require.NoError(t, err)

	conn := newTestConn(g.cm)
	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"GUEST"}`))

	// Binding uses the roster's canonical spelling.
	assert.Equal(t, code, conn.GameCode)
	assert.Equal(t, "guest", conn.PlayerName)

	ev := recvEvent(t, conn)
	require.Equal(t, events.TypeGameState, ev.Type)
	var state events.GameStatePayload
	require.NoError(t, json.Unmarshal(ev.Data, &state))
	assert.Equal(t, "lobby", state.Phase)
	require.Len(t, state.Players, 2)
	assert.Empty(t, state.Players[0].Role)
}

func TestJoinRoomUnknownPlayer(t *testing.T) {
	g, reg := newTestGateway()
	code, _, err := reg.Create("host")
	require.NoError(t, err)

	conn := newTestConn(g.cm)
	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"stranger"}`))

	assert.Empty(t, conn.GameCode)
	ev := recvEvent(t, conn)
	assert.Equal(t, events.TypeError, ev.Type)
}

// A reconnecting client sends join_room on an already-bound connection; the
// rebind must keep the connection deliverable instead of tearing it down.
func TestRejoinRebindsConnection(t *testing.T) {
	g, reg := newTestGateway()
	code, _, err := reg.Create("host")
	require.NoError(t, err)
	_, err = reg.Join(code, "guest")
	require.NoError(t, err)

	conn := newTestConn(g.cm)
	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"guest"}`))
	require.Equal(t, events.TypeGameState, recvEvent(t, conn).Type)

	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"guest"}`))
	assert.Equal(t, code, conn.GameCode)
	assert.Equal(t, "guest", conn.PlayerName)
	require.Equal(t, events.TypeGameState, recvEvent(t, conn).Type)

	total, games := g.cm.Stats()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, games[code])
}

// leave_room clears the binding: the connection stays open but game commands
// are rejected until the next join_room, and nothing reaches the session.
func TestLeaveRoomClearsBinding(t *testing.T) {
	g, reg := newTestGateway()
	code, session, err := reg.Create("host")
	require.NoError(t, err)

	conn := newTestConn(g.cm)
	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"host"}`))
	require.Equal(t, events.TypeGameState, recvEvent(t, conn).Type)

	g.handleCommand(conn, []byte(`{"type":"leave_room"}`))
	assert.Empty(t, conn.GameCode)
	assert.Empty(t, conn.PlayerName)
	total, _ := g.cm.Stats()
	assert.Equal(t, 0, total)

	g.handleCommand(conn, []byte(`{"type":"start_game"}`))
	ev := recvEvent(t, conn)
	require.Equal(t, events.TypeError, ev.Type)
	var payload events.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "game not found", payload.Message)
	assert.Equal(t, "lobby", string(session.CurrentPhase()))

	// Rejoining restores delivery.
	g.handleCommand(conn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"host"}`))
	assert.Equal(t, code, conn.GameCode)
	require.Equal(t, events.TypeGameState, recvEvent(t, conn).Type)
}

func TestCommandWithoutBindingRejected(t *testing.T) {
	g, _ := newTestGateway()
	conn := newTestConn(g.cm)

	g.handleCommand(conn, []byte(`{"type":"start_game"}`))
	ev := recvEvent(t, conn)
	assert.Equal(t, events.TypeError, ev.Type)
}

func TestMalformedCommandRejected(t *testing.T) {
	g, _ := newTestGateway()
	conn := newTestConn(g.cm)

	g.handleCommand(conn, []byte(`{not json`))
	ev := recvEvent(t, conn)
	assert.Equal(t, events.TypeError, ev.Type)
}

func TestHostCommandsFlowThroughGateway(t *testing.T) {
	g, reg := newTestGateway()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.cm.Start(ctx)

	code, session, err := reg.Create("host")
	require.NoError(t, err)

	hostConn := newTestConn(g.cm)
	g.handleCommand(hostConn, []byte(`{"type":"join_room","game_code":"`+code+`","player":"host"}`))
	require.Equal(t, events.TypeGameState, recvEvent(t, hostConn).Type)

	// Too few players: the rejection comes back as an error event on the
	// submitting connection only.
	g.handleCommand(hostConn, []byte(`{"type":"start_game"}`))
	assert.Equal(t, events.TypeError, recvEvent(t, hostConn).Type)

	for _, name := range []string{"p1", "p2", "p3", "p4"} {
		_, err := reg.Join(code, name)
		require.NoError(t, err)
	}
	// Drain the player_joined broadcasts delivered to the bound host.
	for i := 0; i < 4; i++ {
		assert.Equal(t, events.TypePlayerJoined, recvEvent(t, hostConn).Type)
	}

	g.handleCommand(hostConn, []byte(`{"type":"start_game"}`))
	assert.Equal(t, events.TypeGameStarted, recvEvent(t, hostConn).Type)
	assert.Equal(t, events.TypePrivateRole, recvEvent(t, hostConn).Type)
	assert.Equal(t, "night", string(session.CurrentPhase()))
}
