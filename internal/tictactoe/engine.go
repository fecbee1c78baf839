package tictactoe

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// Engine - rules of a single game. It keeps no state between calls.
type Engine struct {
	newID func() string
	now   func() time.Time
}

type Option func(*Engine)

// WithIDGenerator - overrides how game ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(that *Engine) {
		that.newID = newID
	}
}

// WithClock - overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(that *Engine) {
		that.now = now
	}
}

func New(opts ...Option) *Engine {
	engine := &Engine{
		newID: uuid.NewString,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// CreateGame - returns a fresh game with an empty board where X moves first.
func (that *Engine) CreateGame() *entity.Game {
	now := that.now()

	return &entity.Game{
		ID:            that.newID(),
		Board:         [entity.BoardSize]entity.Mark{},
		CurrentPlayer: entity.MarkX,
		MoveHistory:   []entity.Move{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyMove - validates the move and returns the resulting game. The given game is never modified,
// so on error the caller still holds the untouched value.
func (that *Engine) ApplyMove(game *entity.Game, position int, player entity.Mark) (*entity.Game, error) {
	if err := validateMove(game, position, player); err != nil {
		return nil, err
	}

	next := game.Clone()
	next.Board[position] = player
	next.MoveHistory = append(next.MoveHistory, entity.Move{Player: player, Position: position})

	updateGameStatus(next)

	// flips even when the move ended the game; terminal games reject every move anyway
	next.CurrentPlayer = player.Opponent()
	next.UpdatedAt = that.now()

	return next, nil
}

// validateMove - checks if the move is valid.
func validateMove(game *entity.Game, position int, player entity.Mark) error {
	if game.IsFinished() {
		return apperror.ErrGameAlreadyFinished
	}

	if position < 0 || position >= entity.BoardSize {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidPosition, position)
	}

	if game.CurrentPlayer != player {
		return fmt.Errorf("%w: expected %q, got %q", apperror.ErrNotPlayersTurn, game.CurrentPlayer, player)
	}

	if game.Board[position] != entity.EmptyCell {
		return fmt.Errorf("%w: %d", apperror.ErrPositionOccupied, position)
	}

	return nil
}

// updateGameStatus - recomputes winner and draw after a move. A win on a full board is a win.
func updateGameStatus(game *entity.Game) {
	winner, _ := Winner(game.Board)

	game.Winner = winner
	game.IsDraw = winner == entity.EmptyCell && IsBoardFull(game.Board)
}

// Winner - scans the win patterns in order and returns the first completed mark together with
// the pattern index, or EmptyCell and -1.
func Winner(board [entity.BoardSize]entity.Mark) (entity.Mark, int) {
	for i, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a, i
		}
	}

	return entity.EmptyCell, -1
}

func IsBoardFull(board [entity.BoardSize]entity.Mark) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}
