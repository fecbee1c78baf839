package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// Verify - replays the move history of a stored game and checks that board, turn and terminal
// flags agree with it. Used on records coming back from storage.
func Verify(game *entity.Game) error {
	if game == nil {
		return fmt.Errorf("%w: nil game", apperror.ErrCorruptGame)
	}

	if game.HasWinner() && game.IsDraw {
		return fmt.Errorf("%w: both winner and draw are set", apperror.ErrCorruptGame)
	}

	replay := &entity.Game{CurrentPlayer: entity.MarkX}
	for i, move := range game.MoveHistory {
		if err := validateMove(replay, move.Position, move.Player); err != nil {
			return fmt.Errorf("%w: move %d: %w", apperror.ErrCorruptGame, i+1, err)
		}

		replay.Board[move.Position] = move.Player
		updateGameStatus(replay)
		replay.CurrentPlayer = move.Player.Opponent()
	}

	switch {
	case replay.Board != game.Board:
		return fmt.Errorf("%w: board does not match move history", apperror.ErrCorruptGame)
	case replay.Winner != game.Winner:
		return fmt.Errorf("%w: winner %q, expected %q", apperror.ErrCorruptGame, game.Winner, replay.Winner)
	case replay.IsDraw != game.IsDraw:
		return fmt.Errorf("%w: draw flag does not match board", apperror.ErrCorruptGame)
	case replay.CurrentPlayer != game.CurrentPlayer:
		return fmt.Errorf("%w: current player %q, expected %q", apperror.ErrCorruptGame, game.CurrentPlayer, replay.CurrentPlayer)
	}

	return nil
}
