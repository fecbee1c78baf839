package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

type moveRequest struct {
	Position *int   `json:"position" binding:"required"`
	Player   string `json:"player" binding:"required,oneof=X O"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger *slog.Logger
	uGame  usecase.GameUseCase
}

func newHandlers(logger *slog.Logger, uGame usecase.GameUseCase) *handlers {
	return &handlers{
		logger: logger,
		uGame:  uGame,
	}
}

func (that *handlers) createGame(c *gin.Context) {
	game, err := that.uGame.CreateGame(c.Request.Context())
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

func (that *handlers) getGame(c *gin.Context) {
	game, err := that.uGame.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (that *handlers) deleteGame(c *gin.Context) {
	if err := that.uGame.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		that.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (that *handlers) makeMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	game, err := that.uGame.MakeMove(c.Request.Context(), c.Param("id"), *req.Position, entity.Mark(req.Player))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (that *handlers) listStats(c *gin.Context) {
	playerStats, err := that.uGame.ListStats(c.Request.Context())
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, playerStats)
}

func (that *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.With("method", c.FullPath()).Error("request failed", "error", err)
		_ = c.Error(err)
		c.JSON(status, errorResponse{Error: http.StatusText(status)})

		return
	}

	c.JSON(status, errorResponse{Error: err.Error()})
}

// statusFor - the single mapping of domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidPosition), errors.Is(err, apperror.ErrInvalidMark):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrPositionOccupied),
		errors.Is(err, apperror.ErrNotPlayersTurn),
		errors.Is(err, apperror.ErrGameAlreadyFinished):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrGameLocked):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
