package client

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"timegrid/grid"

	"github.com/gorilla/websocket"
)

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// snapshotMessage mirrors the server's push envelope. Every message is a
// complete snapshot; the grid does a full replace on each one.
type snapshotMessage struct {
	Type string             `json:"type"`
	Data []grid.Reservation `json:"data"`
}

// Listen connects to the snapshot feed and keeps the grid reconciled until
// ctx is done, reconnecting with capped backoff on any drop. Because every
// push is a full snapshot, a reconnect needs no catch-up protocol.
func (c *Client) Listen(ctx context.Context) error {
	backoff := reconnectMin
	for {
		err := c.listenOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("feed disconnected: %v; reconnecting in %s", err, backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (c *Client) listenOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.feedURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// drop the connection promptly when ctx is cancelled
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg snapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("invalid feed payload: %v", err)
		return
	}
	if msg.Type != "RESERVATION_SNAPSHOT" {
		log.Printf("unknown feed message type: %q", msg.Type)
		return
	}
	c.grid.ApplySnapshot(msg.Data, c.identity)
}

func (c *Client) feedURL() string {
	ws := c.baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	default:
		// bare host:port; the dialer needs a scheme
		ws = "ws://" + ws
	}
	return ws + "/ws?token=" + url.QueryEscape(c.token)
}
