package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// TypeResync tells a client it missed notifications and should reload
// everything.
const TypeResync = "resync"

var resyncPayload, _ = json.Marshal(Message{Type: TypeResync})

// Client is one dashboard connection. Clients only listen; anything they
// send is discarded.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	// stale is set when a notification was dropped for this client and
	// cleared once the resync message has gone out.
	stale   atomic.Bool
	dropped atomic.Int64
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Dropped is the number of notifications this client has missed.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// enqueue never blocks. A full buffer drops data and marks the client
// stale. The caller must hold the hub lock so send is still open.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		c.dropped.Add(1)
		c.stale.Store(true)
		return false
	}
}

// Run blocks until the connection closes.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
			if c.stale.Swap(false) {
				if err := c.conn.Write(ctx, ws.MessageText, resyncPayload); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
