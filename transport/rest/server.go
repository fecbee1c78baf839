package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/tictactoe-engine/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type wsServer interface {
	ServeGame(writer http.ResponseWriter, req *http.Request, gameID string)
}

type Options struct {
	RateLimit rate.Limit
	Burst     int
}

// NewRouter - builds the HTTP API. A zero RateLimit disables limiting.
func NewRouter(logger *slog.Logger, uGame usecase.GameUseCase, ws wsServer, m *metrics.Metrics, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics(m), requestLogger(logger))

	handlers := newHandlers(logger, uGame)

	router.GET("/ping", pingHandler)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	limited := router.Group("/")
	if opts.RateLimit > 0 {
		limited.Use(rateLimit(rate.NewLimiter(opts.RateLimit, opts.Burst)))
	}

	api := limited.Group("/api")
	api.POST("/games", handlers.createGame)
	api.GET("/games/:id", handlers.getGame)
	api.DELETE("/games/:id", handlers.deleteGame)
	api.POST("/games/:id/moves", handlers.makeMove)
	api.GET("/stats", handlers.listStats)

	limited.GET("/ws/games/:id", func(c *gin.Context) {
		ws.ServeGame(c.Writer, c.Request, c.Param("id"))
	})

	return router
}

// Start - serves handler on port until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
