package game

import "errors"

// Request errors: bad input, session state unchanged.
var (
	ErrInvalidName         = errors.New("invalid player name")
	ErrGameNotFound        = errors.New("game not found")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameFull            = errors.New("game is full")
	ErrDuplicateName       = errors.New("player name already taken")
	ErrUnknownPlayer       = errors.New("player not in game")
	ErrInvalidTarget       = errors.New("target is not a living player")
	ErrInsufficientPlayers = errors.New("not enough players to start")
)

// Authorization errors: rejected, no state change, no broadcast.
var (
	ErrNotHost = errors.New("only the host can perform this action")
)

// Temporal errors: rejected with a signal to the submitter, never silently
// dropped.
var (
	ErrPhaseClosed    = errors.New("phase is closed for this action")
	ErrPlayerNotAlive = errors.New("player is not alive")
	ErrIneligibleRole = errors.New("role cannot perform this action")
	ErrSessionClosed  = errors.New("session is closed")
)
