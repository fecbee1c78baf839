package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Metrics holds the collectors of one process. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	// ids of games created by this process that are still in progress
	mu      sync.Mutex
	running map[string]struct{}

	movesTotal       *prometheus.CounterVec
	gamesTotal       *prometheus.CounterVec
	winsTotal        *prometheus.CounterVec
	gamesInProgress  prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

func New() *Metrics {
	that := &Metrics{
		registry: prometheus.NewRegistry(),
		running:  make(map[string]struct{}),
		movesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tictactoe_moves_total", Help: "Moves by result"},
			[]string{"result"},
		),
		gamesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tictactoe_games_total", Help: "Finished games by result"},
			[]string{"result"},
		),
		winsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tictactoe_wins_total", Help: "Wins by player and pattern"},
			[]string{"player", "pattern"},
		),
		gamesInProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "tictactoe_games_in_progress", Help: "Games created by this process and not yet finished or deleted"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "endpoint"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "http_requests_in_flight", Help: "Current in-flight requests"},
		),
	}

	that.registry.MustRegister(
		that.movesTotal,
		that.gamesTotal,
		that.winsTotal,
		that.gamesInProgress,
		that.requestsTotal,
		that.requestDuration,
		that.requestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return that
}

func (that *Metrics) GameCreated(game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.running[game.ID]; ok {
		return
	}

	that.running[game.ID] = struct{}{}
	that.gamesInProgress.Inc()
}

// GameDeleted - games created by another process, or already finished, are not in the gauge.
func (that *Metrics) GameDeleted(game *entity.Game) {
	that.stopTracking(game.ID)
}

func (that *Metrics) MoveAccepted() {
	that.movesTotal.WithLabelValues(ResultAccepted).Inc()
}

func (that *Metrics) MoveRejected() {
	that.movesTotal.WithLabelValues(ResultRejected).Inc()
}

// GameFinished - pattern is the name of the winning line, empty for a draw.
func (that *Metrics) GameFinished(game *entity.Game, pattern string) {
	that.stopTracking(game.ID)

	if game.IsDraw {
		that.gamesTotal.WithLabelValues(string(entity.StatusDraw)).Inc()
		return
	}

	that.gamesTotal.WithLabelValues(string(entity.StatusWon)).Inc()
	that.winsTotal.WithLabelValues(string(game.Winner), pattern).Inc()
}

func (that *Metrics) stopTracking(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.running[gameID]; !ok {
		return
	}

	delete(that.running, gameID)
	that.gamesInProgress.Dec()
}

func (that *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	that.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	that.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func (that *Metrics) RequestStarted() {
	that.requestsInFlight.Inc()
}

func (that *Metrics) RequestFinished() {
	that.requestsInFlight.Dec()
}

func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.registry, promhttp.HandlerOpts{Registry: that.registry})
}
