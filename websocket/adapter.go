package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scrum-poker-relay/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024

	DefaultSendBuffer = 256
)

// Conn adapts one gorilla websocket to domain.Connection. Outbound frames
// go through a buffered queue drained by the write pump, so Send never
// blocks the caller.
type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	lifecycle domain.Lifecycle
	handler   domain.MessageHandler
}

func NewConn(id string, ws *websocket.Conn, l domain.Lifecycle, h domain.MessageHandler, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Conn{
		id:        id,
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		lifecycle: l,
		handler:   h,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for delivery. It fails once the connection is closing
// or when the queue is full.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return domain.ErrChannelUnavailable
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrChannelUnavailable
	}
}

func (c *Conn) Close() error {
	c.markDone()
	return c.ws.Close()
}

func (c *Conn) markDone() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Conn) Start() {
	c.lifecycle.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.markDone()
		c.lifecycle.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "connId", c.id, "error", err)
			}
			return
		}

		// any inbound frame proves the peer is alive
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.markDone()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.markDone()
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
