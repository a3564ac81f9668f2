package game

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerFixture(t *testing.T) (*Gateway, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	g, _, _ := newTestGateway()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	started := make(chan struct{})
	go g.Run(ctx, started)
	<-started

	h := NewGameHandler(g)
	r := gin.New()
	r.GET("/game/ws", h.WebsocketHandler)
	r.POST("/game/shot", h.FireHandler)
	r.GET("/rooms", h.ListRoomsHandler)
	r.DELETE("/rooms/:roomId", h.CloseRoomHandler)
	return g, r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// seedMatch pushes two players into roomKey and waits for the match to be
// live, probing with an out-of-turn shot that cannot mutate anything.
func seedMatch(t *testing.T, g *Gateway, r *gin.Engine, roomKey string) {
	t.Helper()
	a, b := NewConn(nil, g), NewConn(nil, g)
	g.Register(a)
	g.Register(b)
	g.Dispatch(a, &JoinRoomEvent{RoomID: roomKey, Username: "A"})
	g.Dispatch(b, &JoinRoomEvent{RoomID: roomKey, Username: "B"})
	g.Dispatch(a, &ReadyEvent{RoomID: roomKey, Board: fleetBoard()})
	g.Dispatch(b, &ReadyEvent{RoomID: roomKey, Board: fleetBoard()})

	require.Eventually(t, func() bool {
		w := doJSON(t, r, http.MethodPost, "/game/shot",
			gin.H{"roomId": roomKey, "username": "B", "r": 0, "c": 0})
		return strings.Contains(w.Body.String(), "Not your turn")
	}, time.Second*2, time.Millisecond*10)
}

func TestFireHandler(t *testing.T) {
	g, r := newHandlerFixture(t)
	seedMatch(t, g, r, "R1")

	testCases := []struct {
		desc       string
		body       any
		wantStatus int
		wantBody   string
	}{
		{
			desc:       "payload missing coordinates",
			body:       gin.H{"roomId": "R1", "username": "A"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid shot payload",
		},
		{
			desc:       "unknown room",
			body:       gin.H{"roomId": "nowhere", "username": "A", "r": 0, "c": 0},
			wantStatus: http.StatusNotFound,
			wantBody:   "Room not found",
		},
		{
			desc:       "stranger to the room",
			body:       gin.H{"roomId": "R1", "username": "C", "r": 0, "c": 0},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Players error",
		},
		{
			desc:       "row zero is a valid coordinate",
			body:       gin.H{"roomId": "R1", "username": "A", "r": 0, "c": 0},
			wantStatus: http.StatusOK,
			wantBody:   `"result":"hit"`,
		},
		{
			desc:       "turn already passed to the defender",
			body:       gin.H{"roomId": "R1", "username": "A", "r": 0, "c": 1},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Not your turn",
		},
		{
			desc:       "shot out of bounds",
			body:       gin.H{"roomId": "R1", "username": "B", "r": 10, "c": 0},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Illegal shot",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/game/shot", tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestFireHandler_ResponseShape(t *testing.T) {
	g, r := newHandlerFixture(t)
	seedMatch(t, g, r, "R1")

	w := doJSON(t, r, http.MethodPost, "/game/shot",
		gin.H{"roomId": "R1", "username": "A", "r": 9, "c": 9})
	require.Equal(t, http.StatusOK, w.Code)

	var resp FireResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "miss", resp.Result)
	assert.Equal(t, "B", resp.NextTurn)
	assert.Empty(t, resp.SunkShip)
}

func TestListAndCloseRoomHandlers(t *testing.T) {
	g, r := newHandlerFixture(t)
	seedMatch(t, g, r, "R1")

	w := doJSON(t, r, http.MethodGet, "/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []RoomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, RoomSummary{RoomID: "R1", PlayersCount: 2, IsGameOver: false}, rooms[0])

	w = doJSON(t, r, http.MethodDelete, "/rooms/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/rooms/R1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted successfully")

	w = doJSON(t, r, http.MethodGet, "/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Empty(t, rooms)
}

// TestWebsocketHandler_EndToEnd runs the real upgrade path: two gorilla
// clients join a room and see each other arrive.
func TestWebsocketHandler_EndToEnd(t *testing.T) {
	_, r := newHandlerFixture(t)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws"

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second*2)))
		return conn
	}
	readEvent := func(conn *websocket.Conn) envelopeView {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var v envelopeView
		require.NoError(t, json.Unmarshal(data, &v))
		return v
	}

	clientA := dial()
	require.NoError(t, clientA.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join_room","data":{"roomId":"W1","username":"A"}}`)))

	// A's own join produces the system line and the history replay.
	v := readEvent(clientA)
	assert.Equal(t, "receive_message", v.Event)
	v = readEvent(clientA)
	assert.Equal(t, "chat_history", v.Event)

	clientB := dial()
	require.NoError(t, clientB.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join_room","data":{"roomId":"W1","username":"B"}}`)))

	v = readEvent(clientA)
	assert.Equal(t, "player_joined", v.Event)

	// Garbage in gets an error event back, not a dropped connection.
	require.NoError(t, clientB.WriteMessage(websocket.TextMessage, []byte(`{"event":"warp_drive"}`)))
	for {
		v = readEvent(clientB)
		if v.Event == "error_message" {
			break
		}
	}
	var errEv ErrorEvent
	require.NoError(t, json.Unmarshal(v.Data, &errEv))
	assert.Equal(t, "bad-request", errEv.Code)
}
