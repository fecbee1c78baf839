package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/testing/suite"
)

func newGame(id string) *entity.Game {
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	return &entity.Game{
		ID:            id,
		CurrentPlayer: entity.MarkO,
		MoveHistory:   []entity.Move{{Player: entity.MarkX, Position: 4}},
		Board: [entity.BoardSize]entity.Mark{
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.MarkX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt.Add(time.Second),
	}
}

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage, 0)

	// Given: a game with one move
	game := newGame("123")

	// When: CreateOrUpdate is called
	err := gameRepo.CreateOrUpdate(ctx, game)

	// Then: no error should be returned, and game is stored without expiry
	require.NoError(t, err)

	ttl, err := st.Storage.TTL(ctx, "game:123").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestGameRepository_FinishedGameTTL(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage, time.Hour)

	// Given: a finished game
	game := newGame("123")
	game.Winner = entity.MarkX

	// When: CreateOrUpdate is called
	require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

	// Then: the key expires
	ttl, err := st.Storage.TTL(ctx, "game:123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// Given: a stored game
		game := newGame("123")

		err := gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game.ID, retrievedGame.ID)
		assert.Equal(t, game.Board, retrievedGame.Board)
		assert.Equal(t, game.CurrentPlayer, retrievedGame.CurrentPlayer)
		assert.Equal(t, game.MoveHistory, retrievedGame.MoveHistory)
		assert.True(t, game.CreatedAt.Equal(retrievedGame.CreatedAt))
		assert.True(t, game.UpdatedAt.Equal(retrievedGame.UpdatedAt))
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// Given: a stored game
		game := newGame("123")

		err := gameRepo.CreateOrUpdate(ctx, game)
		require.NoError(t, err)

		// When: DeleteByID is called with existing ID
		err = gameRepo.DeleteByID(ctx, game.ID)

		// Then: no error should be returned and the game is gone
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestMemoryGameRepository(t *testing.T) {
	ctx := t.Context()
	gameRepo := NewMemoryGameRepository()

	// Given: a stored game
	game := newGame("123")
	require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

	// When: the caller mutates its copy after saving
	game.Board[0] = entity.MarkO

	// Then: the stored game is unaffected
	stored, err := gameRepo.GetByID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, entity.EmptyCell, stored.Board[0])

	// When: the returned copy is mutated
	stored.MoveHistory[0].Position = 8

	// Then: the next read still sees the original history
	again, err := gameRepo.GetByID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, 4, again.MoveHistory[0].Position)

	require.NoError(t, gameRepo.DeleteByID(ctx, "123"))
	require.ErrorIs(t, gameRepo.DeleteByID(ctx, "123"), apperror.ErrGameNotFound)

	_, err = gameRepo.GetByID(ctx, "123")
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
}
