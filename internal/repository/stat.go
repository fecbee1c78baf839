package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	statKeyPrefix = "stat:"
	statIndexKey  = "stats:players"

	fieldWins       = "wins"
	fieldLosses     = "losses"
	fieldDraws      = "draws"
	fieldTotalGames = "total_games"
)

// StatRepository - keyed counter storage for PlayerStat rows.
type StatRepository interface {
	Add(ctx context.Context, deltas ...entity.StatDelta) error
	List(ctx context.Context) ([]entity.PlayerStat, error)
}

type dbStat struct {
	client *redis.Client
}

// NewStatRepository - counters kept in one redis hash per player name.
func NewStatRepository(client *redis.Client) StatRepository {
	return &dbStat{
		client: client,
	}
}

// Add - applies every delta inside a single MULTI/EXEC.
func (that *dbStat) Add(ctx context.Context, deltas ...entity.StatDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, delta := range deltas {
			key := statKey(delta.PlayerName)

			pipe.SAdd(ctx, statIndexKey, delta.PlayerName)
			pipe.HIncrBy(ctx, key, fieldWins, delta.Wins)
			pipe.HIncrBy(ctx, key, fieldLosses, delta.Losses)
			pipe.HIncrBy(ctx, key, fieldDraws, delta.Draws)
			pipe.HIncrBy(ctx, key, fieldTotalGames, delta.TotalGames)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment stats: %w", err)
	}

	return nil
}

func (that *dbStat) List(ctx context.Context) ([]entity.PlayerStat, error) {
	names, err := that.client.SMembers(ctx, statIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stat names: %w", err)
	}

	sort.Strings(names)

	pipe := that.client.Pipeline()
	commands := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		commands[i] = pipe.HGetAll(ctx, statKey(name))
	}

	if len(names) > 0 {
		if _, err = pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to get stats: %w", err)
		}
	}

	playerStats := make([]entity.PlayerStat, 0, len(names))
	for i, name := range names {
		playerStat, err := parseStat(name, commands[i].Val())
		if err != nil {
			return nil, err
		}

		playerStats = append(playerStats, playerStat)
	}

	return playerStats, nil
}

func parseStat(name string, fields map[string]string) (entity.PlayerStat, error) {
	playerStat := entity.PlayerStat{PlayerName: name}

	targets := map[string]*int64{
		fieldWins:       &playerStat.Wins,
		fieldLosses:     &playerStat.Losses,
		fieldDraws:      &playerStat.Draws,
		fieldTotalGames: &playerStat.TotalGames,
	}

	for field, target := range targets {
		raw, ok := fields[field]
		if !ok {
			continue
		}

		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return entity.PlayerStat{}, fmt.Errorf("failed to parse %s of %s: %w", field, name, err)
		}

		*target = value
	}

	return playerStat, nil
}

func statKey(name string) string {
	return statKeyPrefix + name
}
