package entity

import (
	"time"
)

// Mark is the symbol a player puts on the board.
type Mark string

const (
	MarkX     Mark = "X"
	MarkO     Mark = "O"
	EmptyCell Mark = ""
)

const BoardSize = 9

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusDraw       = "draw"
)

// WinCombos - the 8 lines of three, scanned in this order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// WinComboNames are labels for WinCombos, index for index.
var WinComboNames = [8]string{
	"top_row",
	"middle_row",
	"bottom_row",
	"left_column",
	"center_column",
	"right_column",
	"main_diagonal",
	"anti_diagonal",
}

type Move struct {
	Player   Mark `json:"player"`
	Position int  `json:"position"`
}

type Game struct {
	ID            string          `json:"id"`
	Board         [BoardSize]Mark `json:"board"`
	CurrentPlayer Mark            `json:"current_player"`
	Winner        Mark            `json:"winner,omitempty"`
	IsDraw        bool            `json:"is_draw"`
	MoveHistory   []Move          `json:"move_history"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (that Mark) IsValid() bool {
	return that == MarkX || that == MarkO
}

// Opponent - returns the other mark. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

func (that *Game) HasWinner() bool {
	return that.Winner != EmptyCell
}

// IsFinished - reports whether the game reached a terminal state.
func (that *Game) IsFinished() bool {
	return that.HasWinner() || that.IsDraw
}

func (that *Game) Status() string {
	switch {
	case that.HasWinner():
		return StatusWon
	case that.IsDraw:
		return StatusDraw
	default:
		return StatusInProgress
	}
}

// FilledCells - counts non-empty cells.
func (that *Game) FilledCells() int {
	filled := 0
	for _, cell := range that.Board {
		if cell != EmptyCell {
			filled++
		}
	}

	return filled
}

// Clone - returns a deep copy; the move history is not shared.
func (that *Game) Clone() *Game {
	clone := *that

	clone.MoveHistory = make([]Move, len(that.MoveHistory))
	copy(clone.MoveHistory, that.MoveHistory)

	return &clone
}
