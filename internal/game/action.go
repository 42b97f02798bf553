package game

import "time"

// ActionKind identifies the declared intent of a submission.
type ActionKind string

const (
	ActionEliminate ActionKind = "eliminate" // mafia: kill target tonight
	ActionSave      ActionKind = "save"      // doctor: protect target tonight
	ActionCheck     ActionKind = "check"     // sheriff: learn target's faction
	ActionVote      ActionKind = "vote"      // day: vote to eliminate target
)

// Action is a submission bound to the current phase instance. Only the latest
// submission per author is retained; resubmission overwrites.
type Action struct {
	Author     string     `json:"author"`
	Kind       ActionKind `json:"kind"`
	Target     string     `json:"target,omitempty"` // empty vote = explicit skip
	ReceivedAt time.Time  `json:"received_at"`
}

// Elimination records a resolved death for the session's history.
type Elimination struct {
	Player string   `json:"player"`
	Role   RoleKind `json:"role"`
	Round  int      `json:"round"`
}
