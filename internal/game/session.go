package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/nightfall-games/mafia/internal/events"
)

// Notifier delivers events to a session's connected players. Public events go
// to everyone in the room; addressed events go to a single player. Delivery to
// an unreachable player is skipped, never an error: connection loss must not
// affect game state.
type Notifier interface {
	Broadcast(gameCode string, ev events.Event)
	SendTo(gameCode, player string, ev events.Event)
}

// Rules holds the tunable parameters of a session.
type Rules struct {
	MinPlayers    int
	MaxPlayers    int
	NightDuration time.Duration
	DayDuration   time.Duration
}

// DefaultRules returns the standard game parameters.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:    5,
		MaxPlayers:    16,
		NightDuration: 60 * time.Second,
		DayDuration:   180 * time.Second,
	}
}

// Player is one roster entry. Alive mirrors the dead flag on the player's
// role; before roles are dealt every player is alive.
type Player struct {
	Name  string
	Alive bool
}

// Session is one game instance. All state below the command channel is owned
// by a single goroutine: every operation is a closure executed on that
// goroutine, so submissions, host commands and timer fires are totally
// ordered and exactly one phase transition is ever in flight.
type Session struct {
	code     string
	rules    Rules
	clock    clockwork.Clock
	notifier Notifier
	rng      *rand.Rand

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run loop.
	phase    Phase
	players  []*Player
	roles    map[string]Role
	actions  map[string]Action
	history  []Elimination
	round    int
	deadline time.Time
	timer    clockwork.Timer
}

// NewSession creates a session in the lobby phase with the host as player 0
// and starts its goroutine.
func NewSession(code, hostName string, rules Rules, clock clockwork.Clock, notifier Notifier, rng *rand.Rand) *Session {
	s := &Session{
		code:     code,
		rules:    rules,
		clock:    clock,
		notifier: notifier,
		rng:      rng,
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
		phase:    PhaseLobby,
		players:  []*Player{{Name: hostName, Alive: true}},
		roles:    make(map[string]Role),
		actions:  make(map[string]Action),
	}
	go s.run()
	return s
}

// Code returns the session's game code.
func (s *Session) Code() string {
	return s.code
}

// Close shuts down the session goroutine. Pending commands fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) run() {
	for {
		var timerCh <-chan time.Time
		if s.timer != nil {
			timerCh = s.timer.Chan()
		}
		select {
		case <-s.done:
			s.stopTimer()
			return
		case fn := <-s.cmds:
			fn()
		case <-timerCh:
			s.timer = nil
			s.onTimerFired()
		}
	}
}

// do runs fn on the session goroutine and waits for its result.
func (s *Session) do(fn func() error) error {
	errCh := make(chan error, 1)
	select {
	case s.cmds <- func() { errCh <- fn() }:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

// Join appends a player to the roster. Rejected once the session has left the
// lobby, when the room is full, or when the name collides with an existing
// player. A successful join is announced to the room.
func (s *Session) Join(name string) error {
	return s.do(func() error {
		if s.phase != PhaseLobby {
			return ErrGameAlreadyStarted
		}
		if len(s.players) >= s.rules.MaxPlayers {
			return ErrGameFull
		}
		for _, p := range s.players {
			if NormalizeName(p.Name) == NormalizeName(name) {
				return ErrDuplicateName
			}
		}
		s.players = append(s.players, &Player{Name: name, Alive: true})
		log.Info().Str("game_code", s.code).Str("player", name).Int("players", len(s.players)).Msg("player joined")
		s.notifier.Broadcast(s.code, events.New(s.code, events.TypePlayerJoined, events.PlayerJoinedPayload{
			PlayerName: name,
			Players:    s.publicPlayers(),
			Phase:      s.phase.String(),
		}))
		return nil
	})
}

// Start begins the game. Host-only, lobby-only, and the roster must meet the
// configured minimum. Roles are dealt once, the night timer is armed, the
// start is broadcast and each player receives their role privately.
func (s *Session) Start(caller string) error {
	return s.do(func() error {
		if !s.isHost(caller) {
			return ErrNotHost
		}
		if s.phase != PhaseLobby {
			return ErrPhaseClosed
		}
		names := make([]string, len(s.players))
		for i, p := range s.players {
			names[i] = p.Name
		}
		roles, err := AssignRoles(names, s.rules.MinPlayers, s.rng)
		if err != nil {
			return err
		}
		s.roles = roles
		s.round = 1
		s.phase = PhaseNight
		s.armTimer(s.rules.NightDuration)
		log.Info().Str("game_code", s.code).Int("players", len(s.players)).Msg("game started")

		s.notifier.Broadcast(s.code, events.New(s.code, events.TypeGameStarted, events.GameStartedPayload{
			Phase:        s.phase.String(),
			Players:      s.publicPlayers(),
			TimerSeconds: s.timerSeconds(),
		}))
		for _, p := range s.players {
			s.notifier.SendTo(s.code, p.Name, events.New(s.code, events.TypePrivateRole, events.PrivateRolePayload{
				Role: string(s.roles[p.Name].Kind),
			}))
		}
		return nil
	})
}

// Restart returns an ended game to the lobby. Host-only. The roster survives;
// roles, pending actions, the elimination history and the timer are cleared.
func (s *Session) Restart(caller string) error {
	return s.do(func() error {
		if !s.isHost(caller) {
			return ErrNotHost
		}
		if s.phase != PhaseEnded {
			return ErrPhaseClosed
		}
		s.stopTimer()
		s.roles = make(map[string]Role)
		s.actions = make(map[string]Action)
		s.history = nil
		s.round = 0
		s.phase = PhaseLobby
		for _, p := range s.players {
			p.Alive = true
		}
		log.Info().Str("game_code", s.code).Msg("game restarted")
		s.notifier.Broadcast(s.code, events.New(s.code, events.TypeGameRestarted, events.GameRestartedPayload{
			Phase:   s.phase.String(),
			Players: s.publicPlayers(),
		}))
		return nil
	})
}

// SubmitNightAction records a night submission for the current night. Only
// the latest submission per player is kept. When every living night actor has
// submitted, the night timer is disarmed and the night resolves immediately.
func (s *Session) SubmitNightAction(caller string, kind ActionKind, target string) error {
	return s.do(func() error {
		if s.phase != PhaseNight {
			return ErrPhaseClosed
		}
		role, ok := s.roles[caller]
		if !ok {
			return ErrUnknownPlayer
		}
		if role.Dead {
			return ErrPlayerNotAlive
		}
		allowed, ok := role.Kind.NightAction()
		if !ok || kind != allowed {
			return ErrIneligibleRole
		}
		if !s.isAlive(target) {
			return ErrInvalidTarget
		}
		s.actions[caller] = Action{Author: caller, Kind: kind, Target: target, ReceivedAt: s.clock.Now()}
		s.notifier.SendTo(s.code, caller, events.New(s.code, events.TypeActionResult, events.ActionResultPayload{
			Player: caller,
			Result: "received",
		}))
		if s.allNightActorsActed() {
			s.stopTimer()
			s.resolveNight()
		}
		return nil
	})
}

// SubmitDayVote records a day vote. An empty target is an explicit skip: it
// counts as having voted but toward no candidate. When every living player
// has voted, the day timer is disarmed and the votes resolve immediately.
func (s *Session) SubmitDayVote(caller, target string) error {
	return s.do(func() error {
		if s.phase != PhaseDay {
			return ErrPhaseClosed
		}
		role, ok := s.roles[caller]
		if !ok {
			return ErrUnknownPlayer
		}
		if role.Dead {
			return ErrPlayerNotAlive
		}
		if target != "" && !s.isAlive(target) {
			return ErrInvalidTarget
		}
		s.actions[caller] = Action{Author: caller, Kind: ActionVote, Target: target, ReceivedAt: s.clock.Now()}
		s.notifier.SendTo(s.code, caller, events.New(s.code, events.TypeActionResult, events.ActionResultPayload{
			Player: caller,
			Result: "received",
		}))
		if s.allLivingVoted() {
			s.stopTimer()
			s.resolveDay()
		}
		return nil
	})
}

func (s *Session) onTimerFired() {
	switch s.phase {
	case PhaseNight:
		s.resolveNight()
	case PhaseDay:
		s.resolveDay()
	default:
		// A stale fire after the game ended; nothing to do.
	}
}

// resolveNight ends the night: applies the mafia kill (unless saved),
// delivers sheriff verdicts, checks the win condition and enters the day.
func (s *Session) resolveNight() {
	if s.livingCount() == 0 {
		s.failSession("night resolution with zero living players")
		return
	}
	res := ResolveNight(s.actions, s.roles)
	if res.Eliminated != "" {
		s.applyDeath(res.Eliminated)
	}
	for _, c := range res.Checks {
		s.notifier.SendTo(s.code, c.Sheriff, events.New(s.code, events.TypeActionResult, events.ActionResultPayload{
			Player: c.Target,
			Result: c.Verdict,
		}))
	}
	if winner, over := Winner(s.roles); over {
		s.endGame(winner)
		return
	}
	s.enterPhase(PhaseDay, s.rules.DayDuration)
}

// resolveDay ends the day: applies the plurality elimination (ties eliminate
// nobody), checks the win condition and enters the next night.
func (s *Session) resolveDay() {
	if s.livingCount() == 0 {
		s.failSession("day resolution with zero living players")
		return
	}
	res := ResolveDay(s.actions, s.roles)
	if res.Eliminated != "" {
		s.applyDeath(res.Eliminated)
	}
	if winner, over := Winner(s.roles); over {
		s.endGame(winner)
		return
	}
	s.round++
	s.enterPhase(PhaseNight, s.rules.NightDuration)
}

// enterPhase moves to the next phase, clears pending actions, arms the phase
// timer and broadcasts the new public state.
func (s *Session) enterPhase(next Phase, d time.Duration) {
	if !s.phase.CanTransitionTo(next) {
		s.failSession("invalid phase transition from " + s.phase.String() + " to " + next.String())
		return
	}
	s.phase = next
	s.actions = make(map[string]Action)
	s.armTimer(d)
	log.Info().Str("game_code", s.code).Str("phase", next.String()).Int("round", s.round).Msg("phase entered")
	s.notifier.Broadcast(s.code, events.New(s.code, events.TypeGameState, s.snapshot()))
}

func (s *Session) endGame(winner Faction) {
	s.stopTimer()
	s.phase = PhaseEnded
	s.actions = make(map[string]Action)
	log.Info().Str("game_code", s.code).Str("winner", string(winner)).Msg("game over")
	s.notifier.Broadcast(s.code, events.New(s.code, events.TypeGameOver, events.GameOverPayload{
		Winner:  string(winner),
		Players: s.publicPlayers(),
	}))
}

// failSession handles an invariant violation: the session is forced to ended
// so it can only be restarted, and the process and other sessions are
// untouched.
func (s *Session) failSession(reason string) {
	log.Error().Str("game_code", s.code).Str("reason", reason).Msg("session invariant violated, forcing game over")
	s.endGame("")
}

func (s *Session) applyDeath(name string) {
	role := s.roles[name]
	role.Dead = true
	s.roles[name] = role
	for _, p := range s.players {
		if p.Name == name {
			p.Alive = false
		}
	}
	s.history = append(s.history, Elimination{Player: name, Role: role.Kind, Round: s.round})
	log.Info().Str("game_code", s.code).Str("player", name).Str("role", string(role.Kind)).Int("round", s.round).Msg("player eliminated")
	s.notifier.Broadcast(s.code, events.New(s.code, events.TypeElimination, events.EliminationPayload{
		Player: name,
		Role:   string(role.Kind),
		Round:  s.round,
	}))
}

func (s *Session) armTimer(d time.Duration) {
	s.stopTimer()
	s.deadline = s.clock.Now().Add(d)
	s.timer = s.clock.NewTimer(d)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}

func (s *Session) timerSeconds() int {
	if s.deadline.IsZero() {
		return 0
	}
	remaining := int(s.deadline.Sub(s.clock.Now()).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) isHost(name string) bool {
	return len(s.players) > 0 && s.players[0].Name == name
}

func (s *Session) isAlive(name string) bool {
	for _, p := range s.players {
		if p.Name == name {
			return p.Alive
		}
	}
	return false
}

func (s *Session) livingCount() int {
	n := 0
	for _, p := range s.players {
		if p.Alive {
			n++
		}
	}
	return n
}

func (s *Session) allNightActorsActed() bool {
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if role, ok := s.roles[p.Name]; ok && role.Kind.ActsAtNight() {
			if _, acted := s.actions[p.Name]; !acted {
				return false
			}
		}
	}
	return true
}

func (s *Session) allLivingVoted() bool {
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if _, voted := s.actions[p.Name]; !voted {
			return false
		}
	}
	return true
}
