package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
)

// dependencies - storage-backed collaborators picked by config.
type dependencies struct {
	gameRepo  repository.GameRepository
	statStore repository.StatRepository
	locker    repository.Locker

	closers []func()
}

func (that *dependencies) close() {
	for i := len(that.closers) - 1; i >= 0; i-- {
		that.closers[i]()
	}
}

func needsRedis(conf *config.Config) bool {
	return conf.Storage.Driver == config.StorageDriverRedis || conf.Stats.Driver == config.StatsDriverRedis
}

func openDependencies(ctx context.Context, logger *slog.Logger, conf *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	var redisStorage *storage.RedisStorage
	if needsRedis(conf) {
		redisAddrString := conf.Redis.GetRedisAddr()
		if conf.Redis.Host == "" {
			return nil, ErrAddrNotFound
		}

		var err error
		redisStorage, err = storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		deps.closers = append(deps.closers, func() {
			if err := redisStorage.Close(); err != nil {
				logger.Error("could not close redis storage", "error", err)
			}
		})
	}

	switch conf.Storage.Driver {
	case config.StorageDriverRedis:
		valkeyStorage, err := storage.NewValkeyStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("could not connect to valkey: %w", err)
		}

		deps.closers = append(deps.closers, valkeyStorage.Close)
		deps.gameRepo = repository.NewGameRepository(redisStorage.Connection, conf.Storage.FinishedGameTTL)
		deps.locker = repository.NewLocker(valkeyStorage.Connection, conf.Lock.TTL, conf.Lock.Wait)
	default:
		deps.gameRepo = repository.NewMemoryGameRepository()
		deps.locker = repository.NewMemoryLocker(conf.Lock.Wait)
	}

	switch conf.Stats.Driver {
	case config.StatsDriverRedis:
		deps.statStore = repository.NewStatRepository(redisStorage.Connection)
	case config.StatsDriverSQLite, config.StatsDriverPostgres:
		sqlStorage, err := storage.NewSQLStorage(conf.Stats.Driver, conf.Stats.DSN)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("could not open sql storage: %w", err)
		}

		deps.closers = append(deps.closers, func() {
			if err := sqlStorage.Close(); err != nil {
				logger.Error("could not close sql storage", "error", err)
			}
		})

		statRepo := repository.NewSQLStatRepository(sqlStorage.Connection)
		if err = statRepo.Migrate(ctx); err != nil {
			deps.close()
			return nil, err
		}

		deps.statStore = statRepo
	default:
		deps.statStore = repository.NewMemoryStatRepository()
	}

	return deps, nil
}
