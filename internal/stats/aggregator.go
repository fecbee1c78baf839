package stats

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// DrawPolicy decides which keys a draw is credited to.
type DrawPolicy string

const (
	// DrawPolicyShared books every draw under entity.DrawKey.
	DrawPolicyShared DrawPolicy = "shared"
	// DrawPolicyCreditBoth books a draw for both X and O.
	DrawPolicyCreditBoth DrawPolicy = "credit-both"
)

// CounterStore keeps PlayerStat rows. Add must apply all deltas of one call together.
type CounterStore interface {
	Add(ctx context.Context, deltas ...entity.StatDelta) error
	List(ctx context.Context) ([]entity.PlayerStat, error)
}

type Aggregator struct {
	store      CounterStore
	drawPolicy DrawPolicy
}

func NewAggregator(store CounterStore, drawPolicy DrawPolicy) *Aggregator {
	if drawPolicy == "" {
		drawPolicy = DrawPolicyShared
	}

	return &Aggregator{
		store:      store,
		drawPolicy: drawPolicy,
	}
}

// RecordOutcome - increments the counters for a finished game. It is not idempotent:
// callers invoke it once per terminal transition.
func (that *Aggregator) RecordOutcome(ctx context.Context, winner entity.Mark, isDraw bool) error {
	deltas, err := that.Deltas(winner, isDraw)
	if err != nil {
		return err
	}

	if err = that.store.Add(ctx, deltas...); err != nil {
		return fmt.Errorf("failed to add stats: %w", err)
	}

	return nil
}

// RecordGame - records the outcome of a terminal game.
func (that *Aggregator) RecordGame(ctx context.Context, game *entity.Game) error {
	return that.RecordOutcome(ctx, game.Winner, game.IsDraw)
}

// Deltas - translates an outcome into counter increments without touching the store.
func (that *Aggregator) Deltas(winner entity.Mark, isDraw bool) ([]entity.StatDelta, error) {
	hasWinner := winner != entity.EmptyCell

	switch {
	case hasWinner && isDraw:
		return nil, fmt.Errorf("%w: winner %q", apperror.ErrContradictoryOutcome, winner)
	case !hasWinner && !isDraw:
		return nil, apperror.ErrNoOutcome
	case hasWinner && !winner.IsValid():
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, winner)
	}

	if isDraw {
		return that.drawDeltas(), nil
	}

	return []entity.StatDelta{
		{PlayerName: string(winner), Wins: 1, TotalGames: 1},
		{PlayerName: string(winner.Opponent()), Losses: 1, TotalGames: 1},
	}, nil
}

func (that *Aggregator) drawDeltas() []entity.StatDelta {
	if that.drawPolicy == DrawPolicyCreditBoth {
		return []entity.StatDelta{
			{PlayerName: string(entity.MarkX), Draws: 1, TotalGames: 1},
			{PlayerName: string(entity.MarkO), Draws: 1, TotalGames: 1},
		}
	}

	return []entity.StatDelta{
		{PlayerName: entity.DrawKey, Draws: 1, TotalGames: 1},
	}
}

// List - returns the current counters.
func (that *Aggregator) List(ctx context.Context) ([]entity.PlayerStat, error) {
	playerStats, err := that.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	return playerStats, nil
}

func ParseDrawPolicy(value string) (DrawPolicy, error) {
	switch DrawPolicy(value) {
	case "", DrawPolicyShared:
		return DrawPolicyShared, nil
	case DrawPolicyCreditBoth:
		return DrawPolicyCreditBoth, nil
	default:
		return "", fmt.Errorf("unknown draw policy %q", value)
	}
}
