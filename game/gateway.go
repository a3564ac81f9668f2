package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// MatchRecorder is the external persistence collaborator. It is called
// exactly once per concluded match, after the in-memory transition and
// broadcast have been committed; failures are logged, never retried, and
// never surfaced to players.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, winner, loser, reason string) error
}

// NewsPublisher is the fire-and-forget pub/sub telemetry collaborator.
type NewsPublisher interface {
	PublishNews(message string)
}

// NopPublisher satisfies NewsPublisher when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishNews(string) {}

type Stats struct {
	OnlinePlayers int   `json:"onlinePlayers"`
	ActiveRooms   int   `json:"activeRooms"`
	Uptime        int64 `json:"uptime"`
}

type RoomSummary struct {
	RoomID       string `json:"roomId"`
	PlayersCount int    `json:"playersCount"`
	IsGameOver   bool   `json:"isGameOver"`
}

type inboundEnvelope struct {
	conn  *Conn
	event ClientEvent
}

// connOpened and connClosed ride the same inbox as client events, so a
// connection's lifecycle is ordered with its own traffic: a disconnect
// can never overtake an event the connection dispatched before it.
type connOpened struct{}
type connClosed struct{}

func (connOpened) isClientEvent() {}
func (connClosed) isClientEvent() {}

// FireResponse mirrors what the websocket update_game broadcast carries,
// for the synchronous HTTP entry point.
type FireResponse struct {
	Result   string `json:"result"`
	SunkShip string `json:"sunkShip,omitempty"`
	NextTurn string `json:"nextTurn"`
	Err      error  `json:"-"`
}

type fireRequest struct {
	roomID   string
	username string
	row, col int
	resp     chan FireResponse
}

type closeRoomRequest struct {
	roomID string
	resp   chan bool
}

// Gateway owns the room registry and every Room in it. A single goroutine
// (Run) drains all of its channels, so each event is applied to completion
// before the next one is observed: no per-room locks, no interleaving,
// per-room ordering equals arrival ordering.
type Gateway struct {
	recorder  MatchRecorder
	publisher NewsPublisher

	rooms map[string]*Room
	conns map[string]*Conn

	inbox         chan inboundEnvelope
	fireReqs      chan fireRequest
	roomListReqs  chan chan []RoomSummary
	closeRoomReqs chan closeRoomRequest
	statsReqs     chan chan Stats

	startedAt time.Time
}

func NewGateway(recorder MatchRecorder, publisher NewsPublisher) *Gateway {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Gateway{
		recorder:      recorder,
		publisher:     publisher,
		rooms:         make(map[string]*Room),
		conns:         make(map[string]*Conn),
		inbox:         make(chan inboundEnvelope, 1024),
		fireReqs:      make(chan fireRequest, 64),
		roomListReqs:  make(chan chan []RoomSummary, 16),
		closeRoomReqs: make(chan closeRoomRequest, 16),
		statsReqs:     make(chan chan Stats, 16),
	}
}

// Run is the event-processing stream. It must be running before any
// connection is registered; started is closed once the loop is live.
func (g *Gateway) Run(ctx context.Context, started chan struct{}) {
	g.startedAt = time.Now()
	close(started)

	for {
		select {
		case <-ctx.Done():
			return

		case env := <-g.inbox:
			g.handleEvent(env.conn, env.event)

		case req := <-g.fireReqs:
			g.handleFireRequest(req)

		case respChan := <-g.roomListReqs:
			respChan <- g.roomSummaries()

		case req := <-g.closeRoomReqs:
			g.handleCloseRoom(req)

		case respChan := <-g.statsReqs:
			respChan <- g.stats()
		}
	}
}

// --- calls from connection pumps and HTTP handlers ---

func (g *Gateway) Register(c *Conn) {
	g.inbox <- inboundEnvelope{conn: c, event: connOpened{}}
}

func (g *Gateway) Disconnected(c *Conn) {
	g.inbox <- inboundEnvelope{conn: c, event: connClosed{}}
}

func (g *Gateway) Dispatch(c *Conn, ev ClientEvent) {
	g.inbox <- inboundEnvelope{conn: c, event: ev}
}

// FireSync is the HTTP entry point for a shot. It goes through the same
// inbox-owned state transition and room broadcast as the websocket fire
// event.
func (g *Gateway) FireSync(ctx context.Context, roomID, username string, row, col int) (FireResponse, error) {
	req := fireRequest{roomID: roomID, username: username, row: row, col: col, resp: make(chan FireResponse, 1)}
	select {
	case g.fireReqs <- req:
	case <-ctx.Done():
		return FireResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.resp:
		return resp, nil
	case <-ctx.Done():
		return FireResponse{}, ctx.Err()
	}
}

func (g *Gateway) Rooms(ctx context.Context) ([]RoomSummary, error) {
	respChan := make(chan []RoomSummary, 1)
	select {
	case g.roomListReqs <- respChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) CloseRoom(ctx context.Context, roomID string) (bool, error) {
	req := closeRoomRequest{roomID: roomID, resp: make(chan bool, 1)}
	select {
	case g.closeRoomReqs <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case closed := <-req.resp:
		return closed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (g *Gateway) Stats(ctx context.Context) (Stats, error) {
	respChan := make(chan Stats, 1)
	select {
	case g.statsReqs <- respChan:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// --- event handling, gateway goroutine only below this point ---

func (g *Gateway) handleEvent(c *Conn, ev ClientEvent) {
	switch ev := ev.(type) {
	case connOpened:
		g.conns[c.id] = c
	case connClosed:
		g.handleDisconnect(c)
	case *JoinRoomEvent:
		g.handleJoin(c, ev)
	case *CheckRoomEvent:
		g.handleCheckRoom(c, ev)
	case *ReadyEvent:
		g.handleReady(c, ev)
	case *FireEvent:
		g.handleFire(c, ev)
	case *ChatEvent:
		g.handleChat(c, ev)
	case *ChatHistoryRequest:
		g.handleChatHistory(c, ev)
	case *LeaveRoomEvent:
		g.handleLeave(c)
	}
}

func (g *Gateway) handleJoin(c *Conn, ev *JoinRoomEvent) {
	if ev.RoomID == "" || ev.Username == "" {
		c.send(EncodeServerEvent(ErrorEvent{Code: "bad-request", Message: "roomId and username are required"}))
		return
	}
	if c.room != "" && c.room != ev.RoomID {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrAlreadyInRoom.Error(), Message: "Leave your current room first."}))
		return
	}

	room, exists := g.rooms[ev.RoomID]
	if !exists {
		room = newRoom(ev.RoomID)
		g.rooms[ev.RoomID] = room
	}

	newPlayer, err := room.join(c, ev.Username)
	if err != nil {
		log.Debug().Str("room", ev.RoomID).Str("username", ev.Username).Msg("join rejected, room is full")
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrRoomFull.Error(), Message: "Room is full! Max 2 players allowed."}))
		return
	}

	c.name = ev.Username
	if newPlayer {
		log.Info().Str("room", ev.RoomID).Str("username", ev.Username).Msg("player joined room")
		g.publisher.PublishNews(fmt.Sprintf("Player %s entered Room %s!", ev.Username, ev.RoomID))
	}
}

func (g *Gateway) handleCheckRoom(c *Conn, ev *CheckRoomEvent) {
	room, exists := g.rooms[ev.RoomID]
	if !exists {
		c.send(EncodeServerEvent(RoomAvailabilityEvent{CanJoin: true}))
		return
	}
	c.send(EncodeServerEvent(room.availability(ev.Username)))
}

func (g *Gateway) handleReady(c *Conn, ev *ReadyEvent) {
	room := g.roomOf(c)
	if room == nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrRoomNotFound.Error(), Message: "Room not found"}))
		return
	}

	started, err := room.ready(c, ev.Board)
	if err != nil {
		if errors.Is(err, ErrNotInRoom) {
			c.send(EncodeServerEvent(ErrorEvent{Code: ErrNotInRoom.Error(), Message: "You are not in this room"}))
			return
		}
		c.send(EncodeServerEvent(ErrorEvent{Code: "invalid-board", Message: err.Error()}))
		return
	}

	if started {
		log.Info().Str("room", room.key).Str("turn", room.turn).Msg("battle started")
		g.publisher.PublishNews(fmt.Sprintf("BATTLE START! %s vs %s in Room %s!", room.players[0].name, room.players[1].name, room.key))
	}
}

func (g *Gateway) handleFire(c *Conn, ev *FireEvent) {
	room := g.roomOf(c)
	if room == nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrRoomNotFound.Error(), Message: "Room not found"}))
		return
	}
	shooter := room.playerByConn(c.id)
	if shooter == nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrNotInRoom.Error(), Message: "You are not in this room"}))
		return
	}

	outcome, err := room.fire(shooter.name, ev.Row, ev.Col)
	if err != nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: err.Error(), Message: "Illegal shot"}))
		return
	}
	g.afterFire(room, outcome)
}

// afterFire notifies the external collaborators. The room broadcast has
// already been queued, so a slow broker or database can't reorder what
// players see.
func (g *Gateway) afterFire(room *Room, out shotOutcome) {
	if out.SunkShip != "" {
		log.Info().Str("room", room.key).Str("shooter", out.Shooter).Str("ship", out.SunkShip).Msg("ship sunk")
		g.publisher.PublishNews(fmt.Sprintf("BOOM! %s sunk a %s in Room %s!", out.Shooter, out.SunkShip, room.key))
	}
	if out.Finished {
		log.Info().Str("room", room.key).Str("winner", out.Winner).Str("loser", out.Loser).Msg("game over")
		g.publisher.PublishNews(fmt.Sprintf("VICTORY! %s destroyed the enemy fleet in Room %s!", out.Winner, room.key))
		g.recordMatch(out.Winner, out.Loser, "destruction")
	}
}

func (g *Gateway) handleChat(c *Conn, ev *ChatEvent) {
	room := g.roomOf(c)
	if room == nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrRoomNotFound.Error(), Message: "Room not found"}))
		return
	}
	if err := room.chat(c, ev.Message); err != nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrNotInRoom.Error(), Message: "You are not in this room"}))
	}
}

func (g *Gateway) handleChatHistory(c *Conn, ev *ChatHistoryRequest) {
	room, exists := g.rooms[ev.RoomID]
	if !exists {
		return
	}
	room.sendChatHistory(c)
}

func (g *Gateway) handleLeave(c *Conn) {
	room := g.roomOf(c)
	if room == nil {
		c.send(EncodeServerEvent(ErrorEvent{Code: ErrRoomNotFound.Error(), Message: "Room not found"}))
		return
	}
	roomKey := c.room
	_, empty := room.removeConn(c, true)
	if empty {
		delete(g.rooms, roomKey)
	}
}

func (g *Gateway) handleDisconnect(c *Conn) {
	if _, registered := g.conns[c.id]; !registered {
		return
	}

	roomKey := c.room
	if roomKey != "" {
		if room, exists := g.rooms[roomKey]; exists {
			forfeit, empty := room.removeConn(c, false)
			if forfeit != nil {
				log.Info().Str("room", roomKey).Str("winner", forfeit.Winner).Str("loser", forfeit.Loser).Msg("win by forfeit")
				g.recordMatch(forfeit.Winner, forfeit.Loser, "forfeit")
			}
			if empty {
				delete(g.rooms, roomKey)
			}
		}
	}

	delete(g.conns, c.id)
	close(c.done)
	log.Debug().Str("conn", c.id).Str("username", c.name).Msg("client disconnected")
}

func (g *Gateway) handleFireRequest(req fireRequest) {
	room, exists := g.rooms[req.roomID]
	if !exists {
		req.resp <- FireResponse{Err: ErrRoomNotFound}
		return
	}
	if room.playerByName(req.username) == nil {
		req.resp <- FireResponse{Err: ErrNotInRoom}
		return
	}

	outcome, err := room.fire(req.username, req.row, req.col)
	if err != nil {
		req.resp <- FireResponse{Err: err}
		return
	}
	g.afterFire(room, outcome)
	req.resp <- FireResponse{Result: outcome.Result, SunkShip: outcome.SunkShip, NextTurn: outcome.NextTurn}
}

func (g *Gateway) handleCloseRoom(req closeRoomRequest) {
	room, exists := g.rooms[req.roomID]
	if !exists {
		req.resp <- false
		return
	}
	room.broadcast(ErrorEvent{Code: "room-closed", Message: "Room closed by server admin."})
	for _, p := range room.players {
		p.conn.room = ""
	}
	delete(g.rooms, req.roomID)
	log.Info().Str("room", req.roomID).Msg("room closed by admin")
	req.resp <- true
}

func (g *Gateway) roomOf(c *Conn) *Room {
	if c.room == "" {
		return nil
	}
	return g.rooms[c.room]
}

func (g *Gateway) roomSummaries() []RoomSummary {
	summaries := make([]RoomSummary, 0, len(g.rooms))
	for key, room := range g.rooms {
		summaries = append(summaries, RoomSummary{
			RoomID:       key,
			PlayersCount: len(room.players),
			IsGameOver:   room.phase == PhaseFinished,
		})
	}
	return summaries
}

func (g *Gateway) stats() Stats {
	online := 0
	for _, c := range g.conns {
		if c.name != "" {
			online++
		}
	}
	return Stats{
		OnlinePlayers: online,
		ActiveRooms:   len(g.rooms),
		Uptime:        int64(time.Since(g.startedAt).Seconds()),
	}
}

func (g *Gateway) recordMatch(winner, loser, reason string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := g.recorder.RecordMatch(ctx, winner, loser, reason); err != nil {
			log.Error().Err(err).Str("winner", winner).Str("loser", loser).Str("reason", reason).Msg("failed to record match result")
		}
	}()
}
