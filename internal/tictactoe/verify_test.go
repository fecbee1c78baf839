package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

func TestVerify(t *testing.T) {
	t.Run("Fresh and played games are consistent", func(t *testing.T) {
		engine := newTestEngine()
		game := engine.CreateGame()
		require.NoError(t, Verify(game))

		game = play(t, engine, game, x(0), o(3), x(1))
		require.NoError(t, Verify(game))

		game = play(t, engine, game, o(4), x(2))
		require.NoError(t, Verify(game))
	})

	t.Run("Board that does not match the history", func(t *testing.T) {
		// Given: a game whose board gained a mark without a history entry
		engine := newTestEngine()
		game := play(t, engine, engine.CreateGame(), x(0))
		game.Board[8] = entity.MarkO

		// When / Then: verification fails
		assert.ErrorIs(t, Verify(game), apperror.ErrCorruptGame)
	})

	t.Run("History that breaks alternation", func(t *testing.T) {
		// Given: X recorded twice in a row
		game := &entity.Game{
			Board:         [entity.BoardSize]entity.Mark{entity.MarkX, entity.MarkX},
			CurrentPlayer: entity.MarkO,
			MoveHistory:   []entity.Move{x(0), x(1)},
		}

		// When / Then: verification fails with the underlying turn error
		err := Verify(game)
		require.ErrorIs(t, err, apperror.ErrCorruptGame)
		assert.ErrorIs(t, err, apperror.ErrNotPlayersTurn)
	})

	t.Run("Missing winner", func(t *testing.T) {
		// Given: a won game whose winner was dropped
		engine := newTestEngine()
		game := play(t, engine, engine.CreateGame(), x(0), o(3), x(1), o(4), x(2))
		game.Winner = entity.EmptyCell

		// When / Then: verification fails
		assert.ErrorIs(t, Verify(game), apperror.ErrCorruptGame)
	})

	t.Run("Winner and draw at the same time", func(t *testing.T) {
		game := &entity.Game{Winner: entity.MarkX, IsDraw: true}

		assert.ErrorIs(t, Verify(game), apperror.ErrCorruptGame)
	})

	t.Run("Wrong current player", func(t *testing.T) {
		// Given: a game where O is next but X is stored
		engine := newTestEngine()
		game := play(t, engine, engine.CreateGame(), x(0))
		game.CurrentPlayer = entity.MarkX

		// When / Then: verification fails
		assert.ErrorIs(t, Verify(game), apperror.ErrCorruptGame)
	})

	t.Run("Moves recorded after the game ended", func(t *testing.T) {
		// Given: a history that continues after X won
		game := &entity.Game{
			Board: [entity.BoardSize]entity.Mark{
				entity.MarkX, entity.MarkX, entity.MarkX,
				entity.MarkO, entity.MarkO, entity.MarkO,
			},
			Winner:        entity.MarkX,
			CurrentPlayer: entity.MarkX,
			MoveHistory:   []entity.Move{x(0), o(3), x(1), o(4), x(2), o(5)},
		}

		// When / Then: verification fails on the sixth move
		err := Verify(game)
		require.ErrorIs(t, err, apperror.ErrCorruptGame)
		assert.ErrorIs(t, err, apperror.ErrGameAlreadyFinished)
	})

	t.Run("Nil game", func(t *testing.T) {
		assert.ErrorIs(t, Verify(nil), apperror.ErrCorruptGame)
	})
}
