package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, maxClients int) (*Hub, string) {
	t.Helper()
	h := NewHub(maxClients)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(func() {
		h.Shutdown()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func subscribe(t *testing.T, conn *websocket.Conn, dashboard, region string) {
	t.Helper()
	msg := map[string]string{"action": "subscribe", "dashboard": dashboard, "region": region}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
}

func TestHub_RoutesBySubscription(t *testing.T) {
	h, url := startHub(t, 10)
	north := dial(t, url)
	south := dial(t, url)
	subscribe(t, north, "telecom", "North")
	subscribe(t, south, "telecom", "South")

	waitFor(t, "subscriptions", func() bool {
		r := h.Regions("telecom")
		return len(r) == 2 && r[0] == "North" && r[1] == "South"
	})

	h.Broadcast("telecom", "North", []byte(`{"tick":"fast","region":"North"}`))

	north.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := north.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "update" || !strings.Contains(string(msg.Data), `"North"`) {
		t.Fatalf("unexpected message %+v", msg)
	}

	south.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := south.ReadMessage(); err == nil {
		t.Fatal("south subscriber should not receive north updates")
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h, url := startHub(t, 10)
	conn := dial(t, url)
	subscribe(t, conn, "contentpulse", "")
	waitFor(t, "subscription", func() bool { return len(h.Regions("contentpulse")) == 1 })

	b, _ := json.Marshal(map[string]string{"action": "unsubscribe"})
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "unsubscribe", func() bool { return len(h.Regions("contentpulse")) == 0 })
}

func TestHub_RejectsOverCapacity(t *testing.T) {
	h, url := startHub(t, 1)
	dial(t, url)
	waitFor(t, "first client", func() bool { return h.ClientCount() == 1 })

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected second client to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("got response %v", resp)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	h, url := startHub(t, 10)
	conn := dial(t, url)
	waitFor(t, "connect", func() bool { return h.ClientCount() == 1 })
	conn.Close()
	waitFor(t, "disconnect", func() bool { return h.ClientCount() == 0 })
}
