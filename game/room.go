package game

import (
	"errors"
	"fmt"
	"time"
)

type RoomPhase int

const (
	PhaseAwaiting RoomPhase = iota
	PhasePlacing
	PhaseInProgress
	PhaseFinished
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseAwaiting:
		return "awaiting"
	case PhasePlacing:
		return "placing"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

const systemSender = "System"

var (
	ErrRoomFull      = errors.New("room-full")
	ErrRoomNotFound  = errors.New("room-not-found")
	ErrNotInRoom     = errors.New("not-in-room")
	ErrNotYourTurn   = errors.New("not-your-turn")
	ErrGameOver      = errors.New("game-over")
	ErrNotInProgress = errors.New("game-not-in-progress")
	ErrOutOfBounds   = errors.New("shot-out-of-bounds")
	ErrAlreadyInRoom = errors.New("already-in-room")
)

// Player couples a stable match identity (the display name, unique within
// the room) with the transient transport handle. Reconnecting under the
// same name swaps the handle and keeps everything else.
type Player struct {
	conn      *Conn
	name      string
	board     *Board
	hitsTaken int
}

// Room is one isolated two-player match session. All of its mutable state
// is owned by the gateway goroutine; methods here are only ever called
// from it.
type Room struct {
	key     string
	phase   RoomPhase
	players []*Player // join order; players[0] fires first
	turn    string    // display name of the player allowed to fire
	chatLog []ChatMessage
}

func newRoom(key string) *Room {
	return &Room{
		key:     key,
		phase:   PhaseAwaiting,
		players: make([]*Player, 0, 2),
	}
}

func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (r *Room) playerByConn(connID string) *Player {
	for _, p := range r.players {
		if p.conn.id == connID {
			return p
		}
	}
	return nil
}

func (r *Room) opponentOf(name string) *Player {
	for _, p := range r.players {
		if p.name != name {
			return p
		}
	}
	return nil
}

func (r *Room) broadcast(ev ServerEvent) {
	data := EncodeServerEvent(ev)
	for _, p := range r.players {
		p.conn.send(data)
	}
}

func (r *Room) broadcastExcept(connID string, ev ServerEvent) {
	data := EncodeServerEvent(ev)
	for _, p := range r.players {
		if p.conn.id != connID {
			p.conn.send(data)
		}
	}
}

func (r *Room) appendSystemMessage(text string) ChatMessage {
	msg := ChatMessage{
		Username: systemSender,
		Message:  text,
		Time:     time.Now().Format("03:04 PM"),
		IsSystem: true,
	}
	r.chatLog = append(r.chatLog, msg)
	return msg
}

// join registers a new player or reattaches a reconnecting one. It
// reports whether a brand-new player entered (the caller announces that
// globally).
func (r *Room) join(c *Conn, username string) (newPlayer bool, err error) {
	existing := r.playerByName(username)

	if existing == nil && len(r.players) >= 2 {
		return false, ErrRoomFull
	}

	// Room keys are reusable: joining a finished room arms it for a
	// fresh match.
	if r.phase == PhaseFinished {
		r.resetForRematch()
	}

	if existing != nil {
		// Reconnect: swap the transport handle only. Board and
		// hitsTaken survive.
		existing.conn = c
	} else {
		r.players = append(r.players, &Player{conn: c, name: username})

		msg := r.appendSystemMessage(fmt.Sprintf("%s entered the room.", username))
		r.broadcastExcept(c.id, PlayerJoinedEvent{Message: fmt.Sprintf("%s entered the room!", username)})
		r.broadcast(ReceiveMessageEvent{ChatMessage: msg})

		if len(r.players) == 2 && r.phase == PhaseAwaiting {
			r.phase = PhasePlacing
		}
		newPlayer = true
	}

	c.room = r.key

	if len(r.chatLog) > 0 {
		c.send(EncodeServerEvent(ChatHistoryEvent{Messages: r.chatLog}))
	}
	return newPlayer, nil
}

// resetForRematch clears the previous match so the same room key can host
// another one. Players stay; boards must be placed again.
func (r *Room) resetForRematch() {
	r.phase = PhaseAwaiting
	if len(r.players) == 2 {
		r.phase = PhasePlacing
	}
	r.turn = ""
	for _, p := range r.players {
		p.board = nil
		p.hitsTaken = 0
	}
}

// ready validates and stores a player's board. When both boards are in,
// the first joiner gets the opening turn and the match starts. It reports
// whether the match just started.
func (r *Room) ready(c *Conn, board Board) (started bool, err error) {
	player := r.playerByConn(c.id)
	if player == nil {
		return false, ErrNotInRoom
	}

	if r.phase == PhaseFinished {
		r.resetForRematch()
	}

	if err := board.Validate(); err != nil {
		return false, err
	}

	player.board = &board
	player.hitsTaken = 0

	if len(r.players) == 2 && r.players[0].board != nil && r.players[1].board != nil {
		r.turn = r.players[0].name
		r.phase = PhaseInProgress
		r.broadcast(GameStartEvent{Turn: r.turn})
		return true, nil
	}

	r.broadcastExcept(c.id, OpponentReadyEvent{Username: player.name})
	return false, nil
}

// shotOutcome reports what a resolved shot did, so the gateway can notify
// the external collaborators after the broadcast has been committed.
type shotOutcome struct {
	Shooter  string
	Result   string
	SunkShip string
	NextTurn string
	Finished bool
	Winner   string
	Loser    string
}

// fire resolves a shot from shooterName. Legal only in progress, only on
// the shooter's turn, only in bounds. The turn passes to the defender
// unconditionally; 17 hits taken ends the match.
func (r *Room) fire(shooterName string, row, col int) (shotOutcome, error) {
	switch r.phase {
	case PhaseFinished:
		return shotOutcome{}, ErrGameOver
	case PhaseInProgress:
	default:
		return shotOutcome{}, ErrNotInProgress
	}

	if r.turn != shooterName {
		return shotOutcome{}, ErrNotYourTurn
	}
	if !inBounds(row, col) {
		return shotOutcome{}, ErrOutOfBounds
	}

	shooter := r.playerByName(shooterName)
	victim := r.opponentOf(shooterName)
	if shooter == nil || victim == nil {
		return shotOutcome{}, ErrNotInRoom
	}

	hit, sunk := victim.board.Fire(row, col)
	result := "miss"
	if hit {
		result = "hit"
		victim.hitsTaken++
	}

	r.turn = victim.name

	outcome := shotOutcome{
		Shooter:  shooter.name,
		Result:   result,
		SunkShip: sunk,
		NextTurn: r.turn,
	}
	if victim.hitsTaken == TotalShipCells {
		r.phase = PhaseFinished
		outcome.Finished = true
		outcome.Winner = shooter.name
		outcome.Loser = victim.name
	}

	r.broadcast(UpdateGameEvent{
		Row:      &row,
		Col:      &col,
		Result:   result,
		Shooter:  shooter.name,
		NextTurn: r.turn,
		SunkShip: sunk,
		GameOver: outcome.Winner,
	})
	return outcome, nil
}

func (r *Room) chat(c *Conn, text string) error {
	player := r.playerByConn(c.id)
	if player == nil {
		return ErrNotInRoom
	}
	msg := ChatMessage{
		Username: player.name,
		Message:  text,
		Time:     time.Now().Format("03:04 PM"),
	}
	r.chatLog = append(r.chatLog, msg)
	r.broadcast(ReceiveMessageEvent{ChatMessage: msg})
	return nil
}

func (r *Room) sendChatHistory(c *Conn) {
	c.send(EncodeServerEvent(ChatHistoryEvent{Messages: r.chatLog}))
}

// forfeitResult is produced when a disconnect hands the match to the
// remaining player.
type forfeitResult struct {
	Winner string
	Loser  string
}

// removeConn takes a player out of the room. A non-graceful removal
// (transport loss) during a live match forfeits it to the opponent;
// a graceful leave never does. It reports the forfeit, if any, and
// whether the room is now empty and must be dropped from the registry.
func (r *Room) removeConn(c *Conn, graceful bool) (forfeit *forfeitResult, empty bool) {
	player := r.playerByConn(c.id)
	if player == nil {
		return nil, len(r.players) == 0
	}

	// Forfeit eligibility is a direct phase check: a finished match
	// can't be forfeited twice, and an unstarted one has nothing to
	// forfeit.
	if !graceful && r.phase == PhaseInProgress && len(r.players) == 2 {
		winner := r.opponentOf(player.name)
		r.phase = PhaseFinished
		forfeit = &forfeitResult{Winner: winner.name, Loser: player.name}
		r.broadcast(UpdateGameEvent{GameOver: winner.name, IsForfeit: true})
	}

	text := fmt.Sprintf("%s disconnected.", player.name)
	if graceful {
		text = fmt.Sprintf("%s left the room.", player.name)
	}
	msg := r.appendSystemMessage(text)
	r.broadcast(ReceiveMessageEvent{ChatMessage: msg})

	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	c.room = ""

	if r.phase != PhaseFinished && len(r.players) < 2 {
		r.phase = PhaseAwaiting
		r.turn = ""
	}

	return forfeit, len(r.players) == 0
}

// availability answers "would this join currently be accepted?" without
// touching any state.
func (r *Room) availability(username string) RoomAvailabilityEvent {
	if r.playerByName(username) == nil && len(r.players) >= 2 {
		return RoomAvailabilityEvent{CanJoin: false, Message: "Room is full! Max 2 players allowed."}
	}
	return RoomAvailabilityEvent{CanJoin: true}
}
