package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type memoryStat struct {
	mu    sync.Mutex
	stats map[string]*entity.PlayerStat
}

func NewMemoryStatRepository() StatRepository {
	return &memoryStat{
		stats: make(map[string]*entity.PlayerStat),
	}
}

func (that *memoryStat) Add(_ context.Context, deltas ...entity.StatDelta) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, delta := range deltas {
		playerStat, ok := that.stats[delta.PlayerName]
		if !ok {
			playerStat = &entity.PlayerStat{PlayerName: delta.PlayerName}
			that.stats[delta.PlayerName] = playerStat
		}

		playerStat.Apply(delta)
	}

	return nil
}

func (that *memoryStat) List(_ context.Context) ([]entity.PlayerStat, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	playerStats := make([]entity.PlayerStat, 0, len(that.stats))
	for _, playerStat := range that.stats {
		playerStats = append(playerStats, *playerStat)
	}

	sort.Slice(playerStats, func(i, j int) bool {
		return playerStats[i].PlayerName < playerStats[j].PlayerName
	})

	return playerStats, nil
}
