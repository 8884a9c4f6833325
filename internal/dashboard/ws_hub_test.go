package dashboard_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/fxlens/fx-engine/data"
	"github.com/fxlens/fx-engine/internal/dashboard"
	"github.com/fxlens/fx-engine/internal/store"
)

// Ingesting a bundle must push a bundle_updated message to every connected
// WebSocket client so dashboards can re-fetch the affected quarter.
func TestWSBroadcastOnIngest(t *testing.T) {
	ms := store.NewMemoryStore()
	hub := dashboard.NewWSHub()
	go hub.Run()
	svc := dashboard.NewService(ms, hub)

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Routes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	// Registration happens on the hub goroutine after the handshake; wait
	// for it so the broadcast cannot outrun the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bundles, err := data.SeedBundles()
	if err != nil {
		t.Fatalf("load seed bundles: %v", err)
	}
	body, _ := json.Marshal(bundles[0])
	resp, err := http.Post(srv.URL+"/api/v1/quarters", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg dashboard.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "bundle_updated" {
		t.Errorf("type = %q, want bundle_updated", msg.Type)
	}
	if msg.BaseQuarter != string(bundles[0].BaseQuarter) {
		t.Errorf("base quarter = %q, want %s", msg.BaseQuarter, bundles[0].BaseQuarter)
	}
	if msg.RevisionID == "" {
		t.Error("expected the assigned revision id in the broadcast")
	}
}

// A closed client must be dropped from the hub so later broadcasts do not
// accumulate dead connections.
func TestWSClientUnregisterOnClose(t *testing.T) {
	ms := store.NewMemoryStore()
	hub := dashboard.NewWSHub()
	go hub.Run()
	svc := dashboard.NewService(ms, hub)

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Routes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
