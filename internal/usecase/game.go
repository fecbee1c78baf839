package usecase

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// GameUseCase is what the transports need from the game service.
type GameUseCase interface {
	CreateGame(ctx context.Context) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error

	MakeMove(ctx context.Context, gameID string, position int, player entity.Mark) (*entity.Game, error)

	ListStats(ctx context.Context) ([]entity.PlayerStat, error)
}

// Notifier receives every game state accepted by MakeMove.
type Notifier interface {
	Publish(game *entity.Game)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type statsRecorder interface {
	RecordGame(ctx context.Context, game *entity.Game) error
	List(ctx context.Context) ([]entity.PlayerStat, error)
}

type metricsRecorder interface {
	GameCreated(game *entity.Game)
	GameDeleted(game *entity.Game)
	MoveAccepted()
	MoveRejected()
	GameFinished(game *entity.Game, pattern string)
}

type noopNotifier struct{}

func (noopNotifier) Publish(*entity.Game) {}
