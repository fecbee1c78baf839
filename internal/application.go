package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/stats"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-engine/transport/rest"
	"github.com/rocketscienceinc/tictactoe-engine/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the HTTP and WebSocket servers until ctx is cancelled.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	deps, err := openDependencies(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer deps.close()

	aggregator, err := newAggregator(deps, conf)
	if err != nil {
		return err
	}

	m := metrics.New()
	hub := websocket.NewHub(logger)

	gameManager := usecase.NewGameManager(
		logger,
		tictactoe.New(),
		deps.gameRepo,
		deps.locker,
		aggregator,
		hub,
		m,
	)

	router := rest.NewRouter(logger, gameManager, websocket.New(logger, gameManager, hub), m, rest.Options{
		RateLimit: rate.Limit(conf.RateLimit.RPS),
		Burst:     conf.RateLimit.Burst,
	})

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := rest.Start(ctx, conf.HTTPPort, router); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		log.Info("HTTP server stopped")

		return nil
	})

	return group.Wait()
}

// ListStats - reads the configured counter store.
func ListStats(ctx context.Context, logger *slog.Logger, conf *config.Config) ([]entity.PlayerStat, error) {
	deps, err := openDependencies(ctx, logger, conf)
	if err != nil {
		return nil, err
	}
	defer deps.close()

	playerStats, err := deps.statStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	return playerStats, nil
}

// Migrate - creates the player_stats table for the sql stats drivers.
func Migrate(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	if !isSQLDriver(conf.Stats.Driver) {
		return fmt.Errorf("stats driver %q has no schema to migrate", conf.Stats.Driver)
	}

	sqlStorage, err := storage.NewSQLStorage(conf.Stats.Driver, conf.Stats.DSN)
	if err != nil {
		return fmt.Errorf("could not open sql storage: %w", err)
	}

	defer func() {
		if err := sqlStorage.Close(); err != nil {
			logger.Error("could not close sql storage", "error", err)
		}
	}()

	if err = repository.NewSQLStatRepository(sqlStorage.Connection).Migrate(ctx); err != nil {
		return err
	}

	logger.Info("player_stats migrated", "driver", conf.Stats.Driver)

	return nil
}

func newAggregator(deps *dependencies, conf *config.Config) (*stats.Aggregator, error) {
	drawPolicy, err := stats.ParseDrawPolicy(conf.Stats.DrawPolicy)
	if err != nil {
		return nil, err
	}

	return stats.NewAggregator(deps.statStore, drawPolicy), nil
}

func isSQLDriver(driver string) bool {
	return driver == config.StatsDriverSQLite || driver == config.StatsDriverPostgres
}
