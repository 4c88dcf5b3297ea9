package events_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"podbench/internal/events"
)

func TestHubBroadcastsToClients(t *testing.T) {
	hub := events.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && hub.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected one registered client, got %d", hub.ClientCount())
	}

	hub.Publish(events.Event{
		Type:      events.TypeStageComplete,
		EpisodeID: "ep-1",
		JobID:     7,
		Stage:     "preprocess",
		Status:    "completed",
	})

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received events.Event
	if err := json.Unmarshal(payload, &received); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if received.Type != events.TypeStageComplete || received.EpisodeID != "ep-1" || received.JobID != 7 {
		t.Fatalf("unexpected event: %#v", received)
	}
	if received.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be stamped")
	}
}

func TestHubDropsGoneClients(t *testing.T) {
	hub := events.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && hub.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	conn.Close()

	// Broadcasting to a closed connection removes it from the hub.
	for time.Now().Before(deadline) && hub.ClientCount() != 0 {
		hub.Publish(events.Event{Type: events.TypeStageStart, EpisodeID: "ep-2"})
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected client removed after close, got %d", hub.ClientCount())
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *events.Hub
	hub.Publish(events.Event{Type: events.TypeStageStart})
	if hub.ClientCount() != 0 {
		t.Fatal("expected zero clients on nil hub")
	}
}
