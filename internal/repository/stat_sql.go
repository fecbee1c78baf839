package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// playerStatRecord: row of the player_stats table.
type playerStatRecord struct {
	PlayerName string    `gorm:"column:player_name;primaryKey"`
	Wins       int64     `gorm:"column:wins;not null;default:0"`
	Losses     int64     `gorm:"column:losses;not null;default:0"`
	Draws      int64     `gorm:"column:draws;not null;default:0"`
	TotalGames int64     `gorm:"column:total_games;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (playerStatRecord) TableName() string { return "player_stats" }

// SQLStatRepository - counters in a relational table (sqlite or postgres through gorm).
type SQLStatRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLStatRepository(db *gorm.DB) *SQLStatRepository {
	return &SQLStatRepository{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate - creates or updates the player_stats table.
func (that *SQLStatRepository) Migrate(ctx context.Context) error {
	if err := that.db.WithContext(ctx).AutoMigrate(&playerStatRecord{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	return nil
}

// Add - upserts every delta in one transaction; existing rows are incremented in place.
func (that *SQLStatRepository) Add(ctx context.Context, deltas ...entity.StatDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	now := that.now()

	err := that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, delta := range deltas {
			if err := upsertStat(tx, delta, now); err != nil {
				return fmt.Errorf("upsert %s: %w", delta.PlayerName, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment stats: %w", err)
	}

	return nil
}

func upsertStat(tx *gorm.DB, delta entity.StatDelta, now time.Time) error {
	record := playerStatRecord{
		PlayerName: delta.PlayerName,
		Wins:       delta.Wins,
		Losses:     delta.Losses,
		Draws:      delta.Draws,
		TotalGames: delta.TotalGames,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"wins":        gorm.Expr("\"player_stats\".\"wins\" + ?", delta.Wins),
			"losses":      gorm.Expr("\"player_stats\".\"losses\" + ?", delta.Losses),
			"draws":       gorm.Expr("\"player_stats\".\"draws\" + ?", delta.Draws),
			"total_games": gorm.Expr("\"player_stats\".\"total_games\" + ?", delta.TotalGames),
			"updated_at":  now,
		}),
	}).Create(&record).Error
}

func (that *SQLStatRepository) List(ctx context.Context) ([]entity.PlayerStat, error) {
	var records []playerStatRecord
	if err := that.db.WithContext(ctx).Order("player_name").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	playerStats := make([]entity.PlayerStat, 0, len(records))
	for _, record := range records {
		playerStats = append(playerStats, entity.PlayerStat{
			PlayerName: record.PlayerName,
			Wins:       record.Wins,
			Losses:     record.Losses,
			Draws:      record.Draws,
			TotalGames: record.TotalGames,
		})
	}

	return playerStats, nil
}
