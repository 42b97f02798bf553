package game

// Phase represents the current phase of a game session.
type Phase string

const (
	PhaseLobby Phase = "lobby" // Waiting for players to join
	PhaseNight Phase = "night" // Mafia, doctor and sheriff act in secret
	PhaseDay   Phase = "day"   // Living players vote on an elimination
	PhaseEnded Phase = "ended" // One faction has been wiped out
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from the current phase to the target
// phase is valid.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby: {PhaseNight},
		PhaseNight: {PhaseDay, PhaseEnded},
		PhaseDay:   {PhaseNight, PhaseEnded},
		PhaseEnded: {PhaseLobby}, // restart keeps the roster
	}

	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}
