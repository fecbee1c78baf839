package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/stats"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

type testServer struct {
	manager *usecase.GameManager
	hub     *Hub
	url     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger)
	go hub.Run(ctx)

	manager := usecase.NewGameManager(
		logger,
		tictactoe.New(),
		repository.NewMemoryGameRepository(),
		repository.NewMemoryLocker(time.Second),
		stats.NewAggregator(repository.NewMemoryStatRepository(), stats.DrawPolicyShared),
		hub,
		metrics.New(),
	)

	server := New(logger, manager, hub)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeGame(w, r, strings.TrimPrefix(r.URL.Path, "/ws/games/"))
	}))
	t.Cleanup(httpServer.Close)

	return &testServer{
		manager: manager,
		hub:     hub,
		url:     "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/games/",
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))

	return event
}

func sendMove(t *testing.T, conn *websocket.Conn, position int, player entity.Mark) {
	t.Helper()

	payload, err := json.Marshal(MovePayload{Position: position, Player: player})
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Action: ActionMove, Payload: payload}))
}

func TestServer_InitialState(t *testing.T) {
	ts := newTestServer(t)

	game, err := ts.manager.CreateGame(t.Context())
	require.NoError(t, err)

	// When: a watcher connects
	conn := dial(t, ts.url+game.ID)

	// Then: it receives the current state first
	event := readEvent(t, conn)
	assert.Equal(t, EventState, event.Event)
	require.NotNil(t, event.Game)
	assert.Equal(t, game.ID, event.Game.ID)
}

func TestServer_UnknownGame(t *testing.T) {
	ts := newTestServer(t)

	// When: a watcher subscribes to a game that does not exist
	_, resp, err := websocket.DefaultDialer.Dial(ts.url+"missing", nil)

	// Then: the upgrade is refused with 404
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// moveOnSubscribe plays X in the center right after the watcher has subscribed.
type moveOnSubscribe struct {
	*usecase.GameManager
	calls atomic.Int32
}

func (that *moveOnSubscribe) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	if that.calls.Add(1) == 2 {
		if _, err := that.MakeMove(ctx, id, 4, entity.MarkX); err != nil {
			return nil, err
		}
	}

	return that.GameManager.GetGame(ctx, id)
}

func TestServer_MoveDuringSubscribe(t *testing.T) {
	ts := newTestServer(t)

	game, err := ts.manager.CreateGame(t.Context())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, &moveOnSubscribe{GameManager: ts.manager}, ts.hub)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeGame(w, r, game.ID)
	}))
	t.Cleanup(httpServer.Close)

	// When: a move lands while the watcher is subscribing
	conn := dial(t, "ws"+strings.TrimPrefix(httpServer.URL, "http"))

	// Then: the watcher gets the update and a state that already contains it
	events := []Event{readEvent(t, conn), readEvent(t, conn)}

	var kinds []string
	for _, event := range events {
		kinds = append(kinds, event.Event)
		require.NotNil(t, event.Game)
		assert.Equal(t, entity.MarkX, event.Game.Board[4])
	}

	assert.ElementsMatch(t, []string{EventUpdate, EventState}, kinds)
}

func TestServer_MoveIsBroadcast(t *testing.T) {
	ts := newTestServer(t)

	game, err := ts.manager.CreateGame(t.Context())
	require.NoError(t, err)

	// Given: two watchers of the same game
	player := dial(t, ts.url+game.ID)
	watcher := dial(t, ts.url+game.ID)
	readEvent(t, player)
	readEvent(t, watcher)

	// When: one of them plays X in the center
	sendMove(t, player, 4, entity.MarkX)

	// Then: both receive the update
	for _, conn := range []*websocket.Conn{player, watcher} {
		event := readEvent(t, conn)
		assert.Equal(t, EventUpdate, event.Event)
		require.NotNil(t, event.Game)
		assert.Equal(t, entity.MarkX, event.Game.Board[4])
		assert.Equal(t, entity.MarkO, event.Game.CurrentPlayer)
	}
}

func TestServer_RejectedMove(t *testing.T) {
	ts := newTestServer(t)

	game, err := ts.manager.CreateGame(t.Context())
	require.NoError(t, err)

	conn := dial(t, ts.url+game.ID)
	readEvent(t, conn)

	// When: O tries to move first
	sendMove(t, conn, 4, entity.MarkO)

	// Then: only the sender gets an error event
	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Event)
	assert.Contains(t, event.Error, "it's not your turn")
}

func TestServer_UnknownAction(t *testing.T) {
	ts := newTestServer(t)

	game, err := ts.manager.CreateGame(t.Context())
	require.NoError(t, err)

	conn := dial(t, ts.url+game.ID)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Action: "game:undo"}))

	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Event)
	assert.Contains(t, event.Error, "unknown action")

	// And: the state action still works afterwards
	require.NoError(t, conn.WriteJSON(Message{Action: ActionState}))

	event = readEvent(t, conn)
	assert.Equal(t, EventState, event.Event)
}
