package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/stone-slide/game/engine"
	"github.com/wricardo/stone-slide/game/service"
)

func testView(t *testing.T) *service.PuzzleView {
	t.Helper()
	_, initial, err := engine.NewPuzzle(&engine.LevelConfig{
		Name:   "hub",
		Stones: map[string]string{"A": "a"},
		Layout: []string{"XXXXX", "XA aX", "XXXXX"},
	})
	if err != nil {
		t.Fatalf("NewPuzzle failed: %v", err)
	}
	return service.NewPuzzleView(initial)
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(500 * time.Millisecond):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if hub.ClientCount("test-session") != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount("test-session"))
	}
	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Empty session should be cleaned up")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// Unregistering twice is harmless
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(nil)
	client1 := newTestClient(hub, "multi")
	client2 := newTestClient(hub, "multi")
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if hub.ClientCount("multi") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("multi"))
	}

	hub.unregisterClient(client1)
	if !hub.sessions["multi"][client2] {
		t.Error("client2 should still be registered")
	}
	if hub.ClientCount("other") != 1 {
		t.Error("Other session must be unaffected")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub, "broadcast-test")
	bystander := newTestClient(hub, "elsewhere")
	hub.registerClient(client)
	hub.registerClient(bystander)

	hub.BroadcastToSession("broadcast-test", testView(t))

	message := receive(t, client)
	if message.SessionID != "broadcast-test" {
		t.Errorf("Expected sessionID broadcast-test, got %s", message.SessionID)
	}
	if message.Event != EventStateUpdate {
		t.Errorf("Expected event %s, got %s", EventStateUpdate, message.Event)
	}
	if message.Puzzle == nil || message.Puzzle.Stones["A"] != (engine.Position{Row: 1, Col: 1}) {
		t.Errorf("Puzzle not correctly transmitted: %+v", message.Puzzle)
	}

	select {
	case <-bystander.send:
		t.Error("Client of another session received the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastProgress(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub, "progress")
	hub.registerClient(client)

	hub.BroadcastProgress("progress", engine.LevelStats{Depth: 3, Frontier: 7, Visited: 21})
	hub.BroadcastEvent("progress", EventSearchDone, map[string]int{"moves": 4})

	progress := receive(t, client)
	if progress.Event != EventSearchProgress {
		t.Fatalf("Expected %s, got %s", EventSearchProgress, progress.Event)
	}
	data, _ := json.Marshal(progress.Data)
	var level engine.LevelStats
	if err := json.Unmarshal(data, &level); err != nil {
		t.Fatalf("Failed to decode level stats: %v", err)
	}
	if level.Depth != 3 || level.Frontier != 7 || level.Visited != 21 {
		t.Errorf("Unexpected level stats: %+v", level)
	}

	done := receive(t, client)
	if done.Event != EventSearchDone {
		t.Errorf("Expected %s, got %s", EventSearchDone, done.Event)
	}
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)

	// Run is not started; with nobody watching nothing is queued
	for i := 0; i < 1000; i++ {
		hub.BroadcastProgress("nobody", engine.LevelStats{Depth: i})
	}
	if len(hub.broadcast) != 0 {
		t.Errorf("Expected empty queue, got %d", len(hub.broadcast))
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "stop")
	hub.registerClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if hub.ClientCount("stop") != 0 {
		t.Error("Clients should be disconnected on shutdown")
	}
}

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)
	return server
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met within timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newWSServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := newWSServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })

	hub.BroadcastToSession("msg-test", testView(t))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID msg-test, got %s", message.SessionID)
	}
	if message.Puzzle == nil || len(message.Puzzle.Board) != 3 {
		t.Errorf("Puzzle board not correctly received: %+v", message.Puzzle)
	}
	if message.Puzzle.TotalStones != 1 {
		t.Errorf("Expected 1 stone, got %d", message.Puzzle.TotalStones)
	}
}
