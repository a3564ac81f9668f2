package game

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type GameHandler struct {
	gateway *Gateway
}

func NewGameHandler(gateway *Gateway) *GameHandler {
	return &GameHandler{gateway: gateway}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are filtered by the server-wide middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	c := NewConn(NewWebsocketSession(conn), h.gateway)
	h.gateway.Register(c)
	go c.WritePump()
	go c.ReadPump()
}

// FireHandler is the synchronous HTTP twin of the websocket fire event.
// It produces the identical state transition and room broadcast.
func (h *GameHandler) FireHandler(ctx *gin.Context) {
	var shot struct {
		RoomID   string `json:"roomId" binding:"required"`
		Username string `json:"username" binding:"required"`
		Row      *int   `json:"r" binding:"required"`
		Col      *int   `json:"c" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&shot); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid shot payload"})
		return
	}

	resp, err := h.gateway.FireSync(ctx.Request.Context(), shot.RoomID, shot.Username, *shot.Row, *shot.Col)
	if err != nil {
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"message": "Server busy"})
		return
	}

	if resp.Err != nil {
		switch {
		case errors.Is(resp.Err, ErrRoomNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		case errors.Is(resp.Err, ErrGameOver):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Game is over"})
		case errors.Is(resp.Err, ErrNotYourTurn):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Not your turn"})
		case errors.Is(resp.Err, ErrNotInRoom):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Players error"})
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Illegal shot"})
		}
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	rooms, err := h.gateway.Rooms(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"message": "Server busy"})
		return
	}
	ctx.JSON(http.StatusOK, rooms)
}

func (h *GameHandler) CloseRoomHandler(ctx *gin.Context) {
	roomID := ctx.Param("roomId")
	closed, err := h.gateway.CloseRoom(ctx.Request.Context(), roomID)
	if err != nil {
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"message": "Server busy"})
		return
	}
	if !closed {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Room " + roomID + " deleted successfully."})
}
