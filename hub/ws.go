package hub

import (
	"log"
	"net/http"

	"timegrid/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	ID     string
	UserID string
}

// WebSocketHandler upgrades the connection and registers the client. The
// token travels in the query string because browser WebSocket APIs cannot
// set an Authorization header. Each client receives the current snapshot
// immediately after connecting.
func WebSocketHandler(h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		claims, err := middleware.ValidateToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 16),
			ID:     uuid.NewString(),
			UserID: claims.UserID,
		}

		// seed the new client with the current state; queued before the
		// client is registered so the hub can never close Send first
		if entries, err := loadSnapshot(r.Context()); err != nil {
			log.Println("initial snapshot:", err)
		} else if data, err := encodeSnapshot(entries); err == nil {
			client.Send <- data
		}

		h.register <- client
		go writePump(client)
		go readPump(client, h)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// The feed is one-directional; reads only detect disconnects.
func readPump(c *Client, h *Hub) {
	defer func() {
		h.drop(c)
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
