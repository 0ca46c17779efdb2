package hub

import (
	"encoding/json"
	"testing"
	"time"

	"timegrid/grid"
	"timegrid/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	// create fake client
	client := &Client{
		Send: make(chan []byte, 10),
		ID:   "test-client",
	}

	h.register <- client

	entries := []models.Reservation{
		{Day: grid.Monday, TimeIndex: 9, Username: "alice"},
	}
	h.PushSnapshot(entries)

	select {
	case got := <-client.Send:
		var msg SnapshotMessage
		if err := json.Unmarshal(got, &msg); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if msg.Type != MsgReservationSnapshot {
			t.Fatalf("expected %s, got %s", MsgReservationSnapshot, msg.Type)
		}
		if len(msg.Data) != 1 || msg.Data[0].Username != "alice" {
			t.Fatalf("unexpected snapshot data: %+v", msg.Data)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	h.unregister <- client
}

func TestDropAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{Send: make(chan []byte, 1), ID: "late-client"}
	h.register <- client

	h.Stop()

	// a read pump exiting during shutdown must not hang on unregister
	done := make(chan struct{})
	go func() {
		h.drop(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("drop blocked after hub stop")
	}
}

func TestHubEmptySnapshotIsNotNull(t *testing.T) {
	data, err := encodeSnapshot(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var msg struct {
		Data []models.Reservation `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// a reset must arrive as [], never null, so clients always full-replace
	if string(data) == `{"type":"RESERVATION_SNAPSHOT","data":null}` {
		t.Fatal("empty snapshot encoded as null")
	}
	if msg.Data == nil || len(msg.Data) != 0 {
		t.Fatalf("expected empty slice, got %v", msg.Data)
	}
}
