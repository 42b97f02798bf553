package game

import "github.com/nightfall-games/mafia/internal/events"

// This file holds the two projections from full session state to what players
// are allowed to see. Everything sent to the room goes through publicPlayers
// or snapshot; a living player's role is never part of either.

// publicPlayers is the public projection of the roster: names, alive flags,
// and the revealed role of dead players only. Run-loop only.
func (s *Session) publicPlayers() []events.PlayerView {
	views := make([]events.PlayerView, len(s.players))
	for i, p := range s.players {
		views[i] = events.PlayerView{Name: p.Name, Alive: p.Alive}
		if role, ok := s.roles[p.Name]; ok && role.Dead {
			views[i].Role = string(role.Kind)
		}
	}
	return views
}

// snapshot is the public projection of the whole session. Run-loop only.
func (s *Session) snapshot() events.GameStatePayload {
	return events.GameStatePayload{
		Players:      s.publicPlayers(),
		Phase:        s.phase.String(),
		TimerSeconds: s.timerSeconds(),
		Round:        s.round,
	}
}

// Snapshot returns the public view of the session, as sent to a connection
// that (re)joins the room.
func (s *Session) Snapshot() events.GameStatePayload {
	var snap events.GameStatePayload
	_ = s.do(func() error {
		snap = s.snapshot()
		return nil
	})
	return snap
}

// RoleOf is the per-player private projection: a player's own role. Used to
// re-deliver private_role on reconnect. Fails before roles are dealt.
func (s *Session) RoleOf(name string) (Role, error) {
	var role Role
	err := s.do(func() error {
		r, ok := s.roles[name]
		if !ok {
			return ErrUnknownPlayer
		}
		role = r
		return nil
	})
	return role, err
}

// PlayerNames returns the roster in join order; index 0 is the host.
func (s *Session) PlayerNames() []string {
	var names []string
	_ = s.do(func() error {
		names = make([]string, len(s.players))
		for i, p := range s.players {
			names[i] = p.Name
		}
		return nil
	})
	return names
}

// Host returns the host's name.
func (s *Session) Host() string {
	var host string
	_ = s.do(func() error {
		host = s.players[0].Name
		return nil
	})
	return host
}

// CurrentPhase returns the session's phase.
func (s *Session) CurrentPhase() Phase {
	var phase Phase
	_ = s.do(func() error {
		phase = s.phase
		return nil
	})
	return phase
}

// History returns a copy of the elimination history.
func (s *Session) History() []Elimination {
	var hist []Elimination
	_ = s.do(func() error {
		hist = append([]Elimination(nil), s.history...)
		return nil
	})
	return hist
}
