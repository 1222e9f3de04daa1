package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single WebSocket connection opened under one session.
type Client struct {
	hub       *Hub
	conn      *ws.Conn
	userID    int64
	tokenHash string
	expiresAt time.Time
	send      chan []byte
}

// NewClient ties a connection to the session that opened it. The connection
// is closed once expiresAt passes; a zero expiresAt never expires.
func NewClient(hub *Hub, conn *ws.Conn, userID int64, tokenHash string, expiresAt time.Time) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		tokenHash: tokenHash,
		expiresAt: expiresAt,
		send:      make(chan []byte, sendBufferSize),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed or the session expires, then
// unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	var cancel context.CancelFunc
	if c.expiresAt.IsZero() {
		ctx, cancel = context.WithCancel(ctx)
	} else {
		ctx, cancel = context.WithDeadline(ctx, c.expiresAt)
	}
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards incoming messages; the page only listens.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
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
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close(ws.StatusPolicyViolation, "signed out")
	}
}
