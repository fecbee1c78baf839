package websocket

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const broadcastBuffer = 256

// Hub fans game updates out to the clients watching that game.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	logger *slog.Logger

	games map[string]map[*client]struct{}

	broadcast  chan *entity.Game
	direct     chan directMessage
	register   chan *client
	unregister chan *client

	done chan struct{}
}

type directMessage struct {
	client *client
	data   []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,

		games:      make(map[string]map[*client]struct{}),
		broadcast:  make(chan *entity.Game, broadcastBuffer),
		direct:     make(chan directMessage),
		register:   make(chan *client),
		unregister: make(chan *client),

		done: make(chan struct{}),
	}
}

// Run - serves the hub until ctx is done, then disconnects every client.
func (that *Hub) Run(ctx context.Context) {
	defer close(that.done)

	for {
		select {
		case <-ctx.Done():
			that.closeAll()
			return
		case c := <-that.register:
			that.registerClient(c)
		case c := <-that.unregister:
			that.unregisterClient(c)
		case game := <-that.broadcast:
			that.broadcastGame(game)
		case message := <-that.direct:
			that.sendDirect(message)
		}
	}
}

// Publish - queues an update for the watchers of game.ID. Never blocks.
func (that *Hub) Publish(game *entity.Game) {
	select {
	case that.broadcast <- game:
	default:
		that.logger.With("method", "Publish").Warn("broadcast queue is full, update dropped", "game_id", game.ID)
	}
}

// attach - returns false when the hub is no longer running.
func (that *Hub) attach(c *client) bool {
	select {
	case that.register <- c:
		return true
	case <-that.done:
		return false
	}
}

func (that *Hub) detach(c *client) {
	select {
	case that.unregister <- c:
	case <-that.done:
	}
}

// sendTo - queues data for one client only.
func (that *Hub) sendTo(c *client, data []byte) {
	select {
	case that.direct <- directMessage{client: c, data: data}:
	case <-that.done:
	}
}

func (that *Hub) registerClient(c *client) {
	clients, ok := that.games[c.gameID]
	if !ok {
		clients = make(map[*client]struct{})
		that.games[c.gameID] = clients
	}

	clients[c] = struct{}{}

	that.logger.Debug("client registered", "game_id", c.gameID, "clients", len(clients))
}

func (that *Hub) unregisterClient(c *client) {
	clients, ok := that.games[c.gameID]
	if !ok {
		return
	}

	if _, ok = clients[c]; !ok {
		return
	}

	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(that.games, c.gameID)
	}

	that.logger.Debug("client unregistered", "game_id", c.gameID, "clients", len(clients))
}

func (that *Hub) broadcastGame(game *entity.Game) {
	data, err := json.Marshal(Event{Event: EventUpdate, Game: game})
	if err != nil {
		that.logger.Error("failed to marshal update", "error", err)
		return
	}

	for c := range that.games[game.ID] {
		select {
		case c.send <- data:
		default:
			// slow watcher
			that.unregisterClient(c)
		}
	}
}

func (that *Hub) sendDirect(message directMessage) {
	if _, ok := that.games[message.client.gameID][message.client]; !ok {
		return
	}

	select {
	case message.client.send <- message.data:
	default:
		that.unregisterClient(message.client)
	}
}

func (that *Hub) closeAll() {
	for _, clients := range that.games {
		for c := range clients {
			that.unregisterClient(c)
		}
	}
}
