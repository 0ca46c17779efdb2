package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"timegrid/db"
	"timegrid/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MsgReservationSnapshot is the only message kind pushed to clients: the
// complete, authoritative reservation list. Clients treat every message as
// a full replace; a reset is simply an empty snapshot.
const MsgReservationSnapshot = "RESERVATION_SNAPSHOT"

// SnapshotMessage is the wire envelope for pushed snapshots.
type SnapshotMessage struct {
	Type string               `json:"type"`
	Data []models.Reservation `json:"data"`
}

type broadcastMsg struct {
	Data []byte
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client send channel and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// drop unregisters a client without blocking once the hub has stopped.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PushSnapshot broadcasts the full reservation list to every connected
// client. Called after every mutation so all grids reconcile at once.
func (h *Hub) PushSnapshot(entries []models.Reservation) {
	data, err := encodeSnapshot(entries)
	if err != nil {
		log.Printf("encode snapshot: %v", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{Data: data}:
	case <-h.done:
	}
}

// PushCurrentSnapshot loads the reservation list from storage and
// broadcasts it.
func (h *Hub) PushCurrentSnapshot(ctx context.Context) {
	entries, err := loadSnapshot(ctx)
	if err != nil {
		log.Printf("load snapshot: %v", err)
		return
	}
	h.PushSnapshot(entries)
}

func encodeSnapshot(entries []models.Reservation) ([]byte, error) {
	if entries == nil {
		entries = []models.Reservation{}
	}
	return json.Marshal(SnapshotMessage{Type: MsgReservationSnapshot, Data: entries})
}

func loadSnapshot(ctx context.Context) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := db.ReservationsCollection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "reservation_day", Value: 1}, {Key: "time_index", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.Reservation
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
