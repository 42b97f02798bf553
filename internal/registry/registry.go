package registry

import (
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/game"
)

const codeLength = 6

// Registry maps game codes to live sessions. It only handles creation, lookup
// and eviction; everything else is serialized inside the session itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session

	rules    game.Rules
	clock    clockwork.Clock
	notifier game.Notifier
	rng      *rand.Rand
}

// New creates an empty registry.
func New(rules game.Rules, clock clockwork.Clock, notifier game.Notifier, rng *rand.Rand) *Registry {
	return &Registry{
		sessions: make(map[string]*game.Session),
		rules:    rules,
		clock:    clock,
		notifier: notifier,
		rng:      rng,
	}
}

// Create makes a new session with hostName as player 0 and returns its fresh
// game code. Code collisions are retried internally and never surface.
func (r *Registry) Create(hostName string) (string, *game.Session, error) {
	if err := game.ValidateName(hostName); err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		code = r.newCode()
		if _, taken := r.sessions[code]; !taken {
			break
		}
	}
	seed := r.rng.Int63()
	session := game.NewSession(code, hostName, r.rules, r.clock, r.notifier, rand.New(rand.NewSource(seed)))
	r.sessions[code] = session

	log.Info().Str("game_code", code).Str("host", hostName).Msg("game created")
	return code, session, nil
}

// Lookup finds the session for a code.
func (r *Registry) Lookup(code string) (*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[code]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return session, nil
}

// Join validates the name, finds the session and appends the player. The
// session rejects joins once it has left the lobby.
func (r *Registry) Join(code, playerName string) (*game.Session, error) {
	if err := game.ValidateName(playerName); err != nil {
		return nil, err
	}
	session, err := r.Lookup(code)
	if err != nil {
		return nil, err
	}
	if err := session.Join(playerName); err != nil {
		return nil, err
	}
	return session, nil
}

// Remove evicts a session and shuts it down. When to call this (abandonment,
// idle timeout) is an operational policy owned by the caller.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	session, ok := r.sessions[code]
	delete(r.sessions, code)
	r.mu.Unlock()

	if ok {
		session.Close()
		log.Info().Str("game_code", code).Msg("game removed")
	}
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// newCode generates a 6-digit decimal game code. Caller holds r.mu.
func (r *Registry) newCode() string {
	const digits = "0123456789"
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = digits[r.rng.Intn(len(digits))]
	}
	return string(code)
}
