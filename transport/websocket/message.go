package websocket

import (
	"github.com/goccy/go-json"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	ActionMove  = "game:move"
	ActionState = "game:state"

	EventUpdate = "game:update"
	EventState  = "game:state"
	EventError  = "error"
)

// Message is sent by a watcher. Payload depends on Action.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type MovePayload struct {
	Position int         `json:"position"`
	Player   entity.Mark `json:"player"`
}

// Event is pushed to watchers.
type Event struct {
	Event string       `json:"event"`
	Game  *entity.Game `json:"game,omitempty"`
	Error string       `json:"error,omitempty"`
}
