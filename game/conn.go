package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const sendQueueSize = 256

// Conn is one client connection. The id is transient: a reconnecting
// player shows up as a fresh Conn and is matched back to their Player by
// display name. name and room are written only by the gateway goroutine.
type Conn struct {
	id      string
	name    string // display name, set on the first join
	room    string // key of the current room, "" outside any
	session NetworkSession
	sendq   chan []byte
	done    chan struct{} // closed by the gateway on disconnect
	limiter *rate.Limiter
	gw      *Gateway
}

func NewConn(session NetworkSession, gw *Gateway) *Conn {
	return &Conn{
		id:      uuid.NewString(),
		session: session,
		sendq:   make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		gw:      gw,
	}
}

// send queues data for the write pump. A client that stopped draining its
// socket loses messages rather than stalling the event stream, and a send
// after disconnect is dropped: the queue itself is never closed, so no
// late sender can panic the event stream.
func (c *Conn) send(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.sendq <- data:
	default:
		log.Warn().Str("conn", c.id).Msg("send queue full, dropping message")
	}
}

// ReadPump decodes inbound frames and hands them to the gateway. It owns
// the disconnect notification: whatever kills the read loop, the gateway
// hears about it exactly once.
func (c *Conn) ReadPump() {
	for {
		data, err := c.session.Read()
		if err != nil {
			break
		}

		if !c.limiter.Allow() {
			continue
		}

		ev, err := DecodeClientEvent(data)
		if err != nil {
			c.send(EncodeServerEvent(ErrorEvent{Code: "bad-request", Message: err.Error()}))
			continue
		}

		c.gw.Dispatch(c, ev)
	}

	c.gw.Disconnected(c)
}

// WritePump drains the send queue onto the socket and keeps the
// connection alive with pings. It exits when the gateway signals
// disconnect or the socket dies.
func (c *Conn) WritePump() {
	pingTicker := time.NewTicker(time.Second * 30)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.done:
			c.session.Close("")
			return
		case data := <-c.sendq:
			if err := c.session.Write(data); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := c.session.Ping(); err != nil {
				return
			}
		}
	}
}
