package apperror

import "errors"

// move validation.
var (
	ErrInvalidPosition     = errors.New("invalid position")
	ErrNotPlayersTurn      = errors.New("it's not your turn")
	ErrPositionOccupied    = errors.New("position is already occupied")
	ErrGameAlreadyFinished = errors.New("game is already finished")
	ErrInvalidMark         = errors.New("invalid mark")
)

// outcome bookkeeping. These signal a caller bug, not a user mistake.
var (
	ErrContradictoryOutcome = errors.New("outcome has both a winner and a draw")
	ErrNoOutcome            = errors.New("outcome has neither a winner nor a draw")
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrCorruptGame  = errors.New("stored game violates game invariants")
	ErrGameLocked   = errors.New("game is locked by another move")
)
