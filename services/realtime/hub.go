// Package realtime pushes dashboard updates to browsers over websockets
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lakebase_dashboards/services/metrics"
)

const (
	WebSocketWriteTimeout = 10 * time.Second
	WebSocketPongTimeout  = 60 * time.Second
	WebSocketPingInterval = 30 * time.Second
	clientBuffer          = 64
	maxCommandSize        = 512
)

// Message is the envelope every push is wrapped in
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Time string          `json:"time"`
}

// Subscription is the dashboard and region a client is watching
type Subscription struct {
	Dashboard string `json:"dashboard"`
	Region    string `json:"region"`
}

// Client is one websocket connection
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu  sync.RWMutex
	sub *Subscription
}

func (c *Client) subscription() (Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sub == nil {
		return Subscription{}, false
	}
	return *c.sub, true
}

type outbound struct {
	dashboard string
	region    string
	data      []byte
}

// Hub owns the connected clients. A single goroutine registers,
// unregisters and fans messages out.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	done       chan struct{}
	once       sync.Once
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	maxClients int
}

// NewHub starts a hub accepting up to maxClients connections
func NewHub(maxClients int) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		maxClients: maxClients,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	go h.run()
	log.Printf("Realtime hub started (max %d clients)", maxClients)
	return h
}

// Shutdown closes every client and stops the hub
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.shutdown)
		<-h.done
		log.Println("Realtime hub shutdown complete")
	})
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.maxClients {
				h.mu.Unlock()
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				client.conn.Close()
				log.Printf("WebSocket client rejected: max clients reached (%d)", h.maxClients)
				continue
			}
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(clientCount))
			go client.writePump()
			go client.readPump(h)
			log.Printf("WebSocket client connected. Total clients: %d", clientCount)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(clientCount))
			log.Printf("WebSocket client disconnected. Total clients: %d", clientCount)

		case msg := <-h.broadcast:
			h.mu.Lock()
			var dead []*Client
			for client := range h.clients {
				sub, ok := client.subscription()
				if !ok || sub.Dashboard != msg.dashboard || sub.Region != msg.region {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// buffer full
					dead = append(dead, client)
				}
			}
			for _, client := range dead {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			if len(dead) > 0 {
				metrics.WebSocketClients.Set(float64(clientCount))
			}
		}
	}
}

// HandleWebSocket upgrades the request and registers the client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= h.maxClients {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- client:
	case <-h.shutdown:
		conn.Close()
	}
}

// Broadcast sends an encoded dashboard update to every client watching
// dashboard and region
func (h *Hub) Broadcast(dashboard, region string, update []byte) {
	data, err := json.Marshal(Message{
		Type: "update",
		Data: update,
		Time: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{dashboard: dashboard, region: region, data: data}:
	case <-h.shutdown:
	}
}

// Regions lists the distinct regions clients of dashboard are watching
func (h *Hub) Regions(dashboard string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for client := range h.clients {
		sub, ok := client.subscription()
		if !ok || sub.Dashboard != dashboard {
			continue
		}
		if _, dup := seen[sub.Region]; dup {
			continue
		}
		seen[sub.Region] = struct{}{}
		out = append(out, sub.Region)
	}
	sort.Strings(out)
	return out
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Status reports hub state for the status endpoint
func (h *Hub) Status() map[string]interface{} {
	return map[string]interface{}{
		"client_count": h.ClientCount(),
		"max_clients":  h.maxClients,
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var cmd struct {
			Action string `json:"action"`
			Subscription
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			sub := cmd.Subscription
			c.mu.Lock()
			c.sub = &sub
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			c.sub = nil
			c.mu.Unlock()
		}
	}
}
