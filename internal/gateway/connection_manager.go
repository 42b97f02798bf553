package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/events"
)

// ConnectionManager manages WebSocket connections for game events. It
// implements the session layer's Notifier: public events fan out to every
// connection bound to a game code, addressed events go to the one connection
// bound to the named player. A player with no live connection is skipped.
type ConnectionManager struct {
	// Connection pools organized by game code
	gameConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage

	// Optional NATS mirror; only public events are mirrored so private
	// payloads never leave the room.
	mirror *events.Publisher

	// Inbound command handler, set by the gateway before serving.
	onCommand func(*Connection, []byte)
}

// Connection represents a WebSocket connection to a client. GameCode and
// PlayerName are empty until the client sends join_room.
type Connection struct {
	ID         string
	GameCode   string
	PlayerName string
	Conn       *websocket.Conn
	Send       chan []byte
	Manager    *ConnectionManager

	// Send is never closed; the pumps exit via done instead, so a send racing
	// a shutdown is at worst dropped, never a panic.
	done      chan struct{}
	closeOnce sync.Once

	ConnectedAt time.Time
	LastPing    time.Time
}

// close shuts the connection down exactly once.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	GameCode string
	Player   string // if set, only deliver to this player
	Event    events.Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager. The mirror
// may be nil.
func NewConnectionManager(config ConnectionConfig, mirror *events.Publisher) *ConnectionManager {
	return &ConnectionManager{
		gameConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
		mirror:      mirror,
	}
}

// Start begins processing outbound events until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.deliver(message)
		}
	}
}

// Broadcast queues a public event for every connection of the game.
func (cm *ConnectionManager) Broadcast(gameCode string, ev events.Event) {
	if cm.mirror != nil {
		cm.mirror.Publish(ev)
	}
	select {
	case cm.broadcastCh <- broadcastMessage{GameCode: gameCode, Event: ev}:
	default:
		log.Warn().Str("game_code", gameCode).Msg("broadcast channel full, dropping message")
	}
}

// SendTo queues an addressed event for a single player's connection.
func (cm *ConnectionManager) SendTo(gameCode, player string, ev events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{GameCode: gameCode, Player: player, Event: ev}:
	default:
		log.Warn().
			Str("game_code", gameCode).
			Str("player", player).
			Msg("broadcast channel full, dropping addressed message")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection. The
// connection stays unbound until the client sends join_room.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("connection_id", connection.ID).Msg("WebSocket connection established")
	return connection, nil
}

// Bind attaches a connection to a game and player and registers it in the
// game's pool. Rebinding moves the connection between pools.
func (cm *ConnectionManager) Bind(conn *Connection, gameCode, player string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn.GameCode != "" {
		cm.removeLocked(conn)
	}
	conn.GameCode = gameCode
	conn.PlayerName = player
	if cm.gameConnections[gameCode] == nil {
		cm.gameConnections[gameCode] = make(map[*Connection]bool)
	}
	cm.gameConnections[gameCode][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("game_code", gameCode).
		Str("player", player).
		Int("total_connections", len(cm.gameConnections[gameCode])).
		Msg("connection bound to game")
}

// unregisterConnection removes a connection from its pool. Losing the
// connection never removes the player from the game; the player just becomes
// unreachable for delivery.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeLocked(conn)
}

// Unbind detaches a connection from its room: it leaves the delivery pool and
// drops its player identity, so game commands are rejected until the next
// join_room. The socket itself stays open.
func (cm *ConnectionManager) Unbind(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeLocked(conn)
	conn.GameCode = ""
	conn.PlayerName = ""
}

// removeLocked drops the pool entry only; the connection stays usable. Caller
// holds cm.mu.
func (cm *ConnectionManager) removeLocked(conn *Connection) {
	connections, exists := cm.gameConnections[conn.GameCode]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.gameConnections, conn.GameCode)
	}
	log.Info().
		Str("connection_id", conn.ID).
		Str("game_code", conn.GameCode).
		Str("player", conn.PlayerName).
		Msg("connection unregistered")
}

// deliver fans one event out to its target connections.
func (cm *ConnectionManager) deliver(message broadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.gameConnections[message.GameCode]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	var targets []*Connection
	for conn := range connections {
		if message.Player != "" && conn.PlayerName != message.Player {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for delivery")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Str("player", conn.PlayerName).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.close()
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("game_code", message.GameCode).
		Int("connections", len(targets)).
		Msg("event delivered")
}

// SendDirect writes an event straight to one connection, bypassing the pools.
// Used for greetings and command errors before or outside binding.
func (cm *ConnectionManager) SendDirect(conn *Connection, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal direct event")
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, dropping direct event")
	}
}

// Stats returns counts of active connections per game.
func (cm *ConnectionManager) Stats() (total int, games map[string]int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	games = make(map[string]int)
	for code, connections := range cm.gameConnections {
		games[code] = len(connections)
		total += len(connections)
	}
	return total, games
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Manager.unregisterConnection(c)
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client commands and hands them to the gateway router.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}
		if c.Manager.onCommand != nil {
			c.Manager.onCommand(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
