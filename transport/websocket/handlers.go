package websocket

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// handleMove - applies a move; watchers receive the result through the hub.
func (that *Server) handleMove(ctx context.Context, c *client, message *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("invalid move payload: %w", err)
	}

	if _, err := that.uGame.MakeMove(ctx, c.gameID, payload.Position, payload.Player); err != nil {
		return err
	}

	return nil
}

func (that *Server) handleState(ctx context.Context, c *client, _ *Message) error {
	game, err := that.uGame.GetGame(ctx, c.gameID)
	if err != nil {
		return err
	}

	that.reply(c, Event{Event: EventState, Game: game})

	return nil
}
