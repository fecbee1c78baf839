package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var errUnknownAction = errors.New("unknown action")

type uGame interface {
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	MakeMove(ctx context.Context, gameID string, position int, player entity.Mark) (*entity.Game, error)
}

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, c *client, message *Message) error
}

func New(logger *slog.Logger, uGame uGame, hub *Hub) *Server {
	server := &Server{
		logger: logger,
		uGame:  uGame,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[ActionMove] = server.handleMove
	server.handlers[ActionState] = server.handleState

	return server
}

// ServeGame - upgrades the request and subscribes the connection to gameID.
// The state is read after subscribing, so no accepted move falls between the two.
// Blocks until the peer disconnects.
func (that *Server) ServeGame(writer http.ResponseWriter, req *http.Request, gameID string) {
	log := that.logger.With("method", "ServeGame", "game_id", gameID)
	ctx := req.Context()

	if _, err := that.uGame.GetGame(ctx, gameID); err != nil {
		if errors.Is(err, apperror.ErrGameNotFound) {
			http.Error(writer, "game not found", http.StatusNotFound)
			return
		}

		log.Error("failed to get game", "error", err)
		http.Error(writer, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn, gameID)
	if !that.hub.attach(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()

	if err = that.handleState(ctx, c, nil); err != nil {
		that.reply(c, Event{Event: EventError, Error: err.Error()})
		that.hub.detach(c)
		return
	}

	err = c.readPump(func(data []byte) {
		that.dispatch(ctx, c, data)
	})
	if err != nil {
		log.Warn("websocket closed unexpectedly", "error", err)
	}

	that.hub.detach(c)
}

func (that *Server) dispatch(ctx context.Context, c *client, data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		that.reply(c, Event{Event: EventError, Error: fmt.Sprintf("invalid message: %v", err)})
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		that.reply(c, Event{Event: EventError, Error: fmt.Sprintf("%v: %q", errUnknownAction, message.Action)})
		return
	}

	if err := handler(ctx, c, &message); err != nil {
		that.reply(c, Event{Event: EventError, Error: err.Error()})
	}
}

func (that *Server) reply(c *client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "error", err)
		return
	}

	that.hub.sendTo(c, data)
}
