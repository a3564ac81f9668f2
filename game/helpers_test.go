package game

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type recorderCall struct {
	winner, loser, reason string
}

// fakeRecorder exposes RecordMatch calls on a channel because the gateway
// fires them from a goroutine.
type fakeRecorder struct {
	calls chan recorderCall
	err   error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{calls: make(chan recorderCall, 8)}
}

func (f *fakeRecorder) RecordMatch(ctx context.Context, winner, loser, reason string) error {
	f.calls <- recorderCall{winner, loser, reason}
	return f.err
}

func (f *fakeRecorder) waitForCall(t *testing.T) recorderCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(time.Second):
		t.Fatal("no match was recorded")
		return recorderCall{}
	}
}

func (f *fakeRecorder) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected match record: %+v", call)
	case <-time.After(time.Millisecond * 50):
	}
}

// fakePublisher collects news lines. Publishes happen on the event
// stream, so no locking is needed in direct-dispatch tests.
type fakePublisher struct {
	messages []string
}

func (f *fakePublisher) PublishNews(message string) {
	f.messages = append(f.messages, message)
}

type envelopeView struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// drain empties a connection's send queue and decodes every envelope.
func drain(t *testing.T, c *Conn) []envelopeView {
	t.Helper()
	var out []envelopeView
	for {
		select {
		case data := <-c.sendq:
			var v envelopeView
			require.NoError(t, json.Unmarshal(data, &v))
			out = append(out, v)
		default:
			return out
		}
	}
}

func eventNames(views []envelopeView) []string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Event)
	}
	return names
}

// firstEvent decodes the first envelope with the given name into dst and
// fails the test if none is there.
func firstEvent(t *testing.T, views []envelopeView, name string, dst any) {
	t.Helper()
	for _, v := range views {
		if v.Event == name {
			require.NoError(t, json.Unmarshal(v.Data, dst))
			return
		}
	}
	t.Fatalf("no %q event among %v", name, eventNames(views))
}

func hasEvent(views []envelopeView, name string) bool {
	for _, v := range views {
		if v.Event == name {
			return true
		}
	}
	return false
}

// newTestGateway wires a gateway whose handlers the test drives directly,
// standing in for the event-stream goroutine.
func newTestGateway() (*Gateway, *fakeRecorder, *fakePublisher) {
	recorder := newFakeRecorder()
	publisher := &fakePublisher{}
	return NewGateway(recorder, publisher), recorder, publisher
}

func newTestConn(g *Gateway) *Conn {
	c := NewConn(nil, g)
	g.conns[c.id] = c
	return c
}

// joinBoth puts two fresh connections into roomKey as names[0], names[1].
func joinBoth(t *testing.T, g *Gateway, roomKey string, names [2]string) (*Conn, *Conn) {
	t.Helper()
	a, b := newTestConn(g), newTestConn(g)
	g.handleEvent(a, &JoinRoomEvent{RoomID: roomKey, Username: names[0]})
	g.handleEvent(b, &JoinRoomEvent{RoomID: roomKey, Username: names[1]})
	require.Contains(t, g.rooms, roomKey)
	require.Len(t, g.rooms[roomKey].players, 2)
	drain(t, a)
	drain(t, b)
	return a, b
}

// readyBoth submits full fleet boards for both players and drains the
// game_start broadcasts.
func readyBoth(t *testing.T, g *Gateway, roomKey string, a, b *Conn) {
	t.Helper()
	g.handleEvent(a, &ReadyEvent{RoomID: roomKey, Board: fleetBoard()})
	g.handleEvent(b, &ReadyEvent{RoomID: roomKey, Board: fleetBoard()})
	require.Equal(t, PhaseInProgress, g.rooms[roomKey].phase)
	drain(t, a)
	drain(t, b)
}

// fleetCells lists every occupied cell of fleetBoard in catalog order.
func fleetCells() []cellPos {
	var cells []cellPos
	row := 0
	for _, s := range Fleet {
		for c := 0; c < s.Size; c++ {
			cells = append(cells, cellPos{r: row, c: c})
		}
		row += 2
	}
	return cells
}
