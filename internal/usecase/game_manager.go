package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	statsRetryInitialInterval = 50 * time.Millisecond
	statsRetryMaxInterval     = 500 * time.Millisecond
	statsRetries              = 4
)

type GameManager struct {
	logger *slog.Logger

	engine     *tictactoe.Engine
	gameRepo   gameRepo
	locker     repository.Locker
	aggregator statsRecorder
	notifier   Notifier
	metrics    metricsRecorder
}

func NewGameManager(
	logger *slog.Logger,
	engine *tictactoe.Engine,
	gameRepo gameRepo,
	locker repository.Locker,
	aggregator statsRecorder,
	notifier Notifier,
	metrics metricsRecorder,
) *GameManager {
	if notifier == nil {
		notifier = noopNotifier{}
	}

	return &GameManager{
		logger: logger,

		engine:     engine,
		gameRepo:   gameRepo,
		locker:     locker,
		aggregator: aggregator,
		notifier:   notifier,
		metrics:    metrics,
	}
}

func (that *GameManager) CreateGame(ctx context.Context) (*entity.Game, error) {
	game := that.engine.CreateGame()

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.metrics.GameCreated(game)
	that.logger.With("method", "CreateGame").Debug("game created", "game_id", game.ID)

	return game, nil
}

// MakeMove - applies one move under the game lock. Statistics are recorded only on the
// transition into a terminal state, so each finished game is counted once.
func (that *GameManager) MakeMove(ctx context.Context, gameID string, position int, player entity.Mark) (*entity.Game, error) {
	log := that.logger.With("method", "MakeMove", "game_id", gameID)

	unlock, err := that.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}

	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to unlock game", "error", err)
		}
	}()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err = tictactoe.Verify(game); err != nil {
		log.Error("stored game is inconsistent", "error", err)
		return nil, fmt.Errorf("failed to verify game: %w", err)
	}

	next, err := that.engine.ApplyMove(game, position, player)
	if err != nil {
		that.metrics.MoveRejected()
		log.Debug("move rejected", "position", position, "player", player, "error", err)

		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.metrics.MoveAccepted()

	if next.IsFinished() {
		that.finishGame(ctx, log, next)
	}

	that.notifier.Publish(next)

	return next, nil
}

func (that *GameManager) finishGame(ctx context.Context, log *slog.Logger, game *entity.Game) {
	_, pattern := tictactoe.Winner(game.Board)

	var patternName string
	if pattern >= 0 {
		patternName = entity.WinComboNames[pattern]
	}

	that.metrics.GameFinished(game, patternName)

	if err := that.recordGame(ctx, log, game); err != nil {
		log.Error("failed to record outcome", "winner", game.Winner, "is_draw", game.IsDraw, "error", err)
		return
	}

	log.Info("game finished", "status", game.Status(), "winner", game.Winner, "pattern", patternName)
}

// recordGame - retries the stats write while the game lock is held. The move is already
// stored, so retries outlive a cancelled request.
func (that *GameManager) recordGame(ctx context.Context, log *slog.Logger, game *entity.Game) error {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = statsRetryInitialInterval
	retryBackoff.MaxInterval = statsRetryMaxInterval

	ctx = context.WithoutCancel(ctx)

	return backoff.RetryNotify(
		func() error {
			err := that.aggregator.RecordGame(ctx, game)
			if isOutcomeError(err) {
				return backoff.Permanent(err)
			}

			return err
		},
		backoff.WithMaxRetries(retryBackoff, statsRetries),
		func(err error, next time.Duration) {
			log.Warn("retrying outcome recording", "error", err, "next", next)
		},
	)
}

func isOutcomeError(err error) bool {
	return errors.Is(err, apperror.ErrContradictoryOutcome) ||
		errors.Is(err, apperror.ErrNoOutcome) ||
		errors.Is(err, apperror.ErrInvalidMark)
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	return that.getGameByID(ctx, id)
}

func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	game, err := that.getGameByID(ctx, id)
	if err != nil {
		return err
	}

	if err = that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.metrics.GameDeleted(game)
	that.logger.With("method", "DeleteGame").Info("game deleted", "game_id", id)

	return nil
}

func (that *GameManager) ListStats(ctx context.Context) ([]entity.PlayerStat, error) {
	playerStats, err := that.aggregator.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	return playerStats, nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}
