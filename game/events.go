package game

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Wire format: {"event": "<name>", "data": {...}}. The inbound and
// outbound event sets are closed; the gateway switches over them
// exhaustively so an unhandled kind is a compile-time omission, not a
// silently dropped string.

type ClientEvent interface{ isClientEvent() }

type JoinRoomEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type CheckRoomEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ReadyEvent struct {
	RoomID string `json:"roomId"`
	Board  Board  `json:"board"`
}

type FireEvent struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"r"`
	Col    int    `json:"c"`
}

type ChatEvent struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type ChatHistoryRequest struct {
	RoomID string `json:"roomId"`
}

// LeaveRoomEvent is a graceful exit: same removal path as a transport
// loss, but it never forfeits a live match.
type LeaveRoomEvent struct{}

func (JoinRoomEvent) isClientEvent()      {}
func (CheckRoomEvent) isClientEvent()     {}
func (ReadyEvent) isClientEvent()         {}
func (FireEvent) isClientEvent()          {}
func (ChatEvent) isClientEvent()          {}
func (ChatHistoryRequest) isClientEvent() {}
func (LeaveRoomEvent) isClientEvent()     {}

var ErrUnknownEvent = errors.New("unknown event")

type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	var ev ClientEvent
	switch env.Event {
	case "join_room":
		ev = &JoinRoomEvent{}
	case "check_room_availability":
		ev = &CheckRoomEvent{}
	case "ready_to_play":
		ev = &ReadyEvent{}
	case "fire":
		ev = &FireEvent{}
	case "send_message":
		ev = &ChatEvent{}
	case "request_chat_history":
		ev = &ChatHistoryRequest{}
	case "leave_room":
		ev = &LeaveRoomEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
	}
	return ev, nil
}

type ServerEvent interface {
	eventName() string
}

// ChatMessage is stored in the room log and replayed in full to late
// joiners. System messages use the reserved "System" sender.
type ChatMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Time     string `json:"time"`
	IsSystem bool   `json:"isSystem,omitempty"`
}

type PlayerJoinedEvent struct {
	Message string `json:"message"`
}

type ChatHistoryEvent struct {
	Messages []ChatMessage `json:"messages"`
}

type ReceiveMessageEvent struct {
	ChatMessage
}

type OpponentReadyEvent struct {
	Username string `json:"username"`
}

type GameStartEvent struct {
	Turn string `json:"turn"`
}

// UpdateGameEvent carries a resolved shot, or (on forfeit) just the
// terminal winner with IsForfeit set. The coordinates are pointers so
// the forfeit broadcast carries no phantom (0,0) shot.
type UpdateGameEvent struct {
	Row       *int   `json:"r,omitempty"`
	Col       *int   `json:"c,omitempty"`
	Result    string `json:"result,omitempty"` // "hit" or "miss"
	Shooter   string `json:"shooter,omitempty"`
	NextTurn  string `json:"nextTurn,omitempty"`
	SunkShip  string `json:"sunkShip,omitempty"`
	GameOver  string `json:"gameOver,omitempty"` // winner's name once terminal
	IsForfeit bool   `json:"isForfeit,omitempty"`
}

type RoomAvailabilityEvent struct {
	CanJoin bool   `json:"canJoin"`
	Message string `json:"message,omitempty"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (PlayerJoinedEvent) eventName() string     { return "player_joined" }
func (ChatHistoryEvent) eventName() string      { return "chat_history" }
func (ReceiveMessageEvent) eventName() string   { return "receive_message" }
func (OpponentReadyEvent) eventName() string    { return "opponent_ready" }
func (GameStartEvent) eventName() string        { return "game_start" }
func (UpdateGameEvent) eventName() string       { return "update_game" }
func (RoomAvailabilityEvent) eventName() string { return "room_availability" }
func (ErrorEvent) eventName() string            { return "error_message" }

func EncodeServerEvent(ev ServerEvent) []byte {
	data, err := json.Marshal(struct {
		Event string      `json:"event"`
		Data  ServerEvent `json:"data"`
	}{Event: ev.eventName(), Data: ev})
	if err != nil {
		// Every outbound payload is a plain struct; this cannot fail.
		panic(err)
	}
	return data
}
