package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/session"
	"github.com/san-kum/geostick/internal/wire"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans fixes and knob updates out to every connected websocket.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Push implements motion.Sink.
func (h *Hub) Push(_ context.Context, s motion.GeoSample) error {
	data, err := wire.Encode(wire.FixMessage(s))
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Knob is a session.OnKnob listener.
func (h *Hub) Knob(ev session.KnobEvent) {
	data, err := wire.Encode(wire.KnobMessage(knobOf(ev)))
	if err != nil {
		log.Warn().Err(err).Msg("encode knob")
		return
	}
	h.Broadcast(data)
}

// Broadcast queues data for every client. Clients whose buffer is full
// are dropped.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("dropping slow client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writeLoop()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func knobOf(ev session.KnobEvent) wire.Knob {
	return wire.Knob{
		X:      ev.Update.Knob.X,
		Y:      ev.Update.Knob.Y,
		Vector: ev.Update.Vector,
		State:  ev.State.String(),
	}
}
