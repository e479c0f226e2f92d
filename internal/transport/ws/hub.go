package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgLeaderboardUpdate MessageType = "leaderboard_update"
	MsgTeamFinished      MessageType = "team_finished"
	MsgTeamPaused        MessageType = "team_paused"
	MsgTeamUnpaused      MessageType = "team_unpaused"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages the organizer dashboard WebSocket connections. Every
// connected dashboard receives every event.
type Hub struct {
	dashboards map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
}

// Connection represents one dashboard WebSocket connection
type Connection struct {
	TeamID string
	Send   chan []byte
	Hub    *Hub
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		dashboards: make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.dashboards[conn] = true
			h.mu.Unlock()
			log.Printf("Dashboard %s connected", conn.TeamID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.dashboards[conn] {
				delete(h.dashboards, conn)
				close(conn.Send)
				log.Printf("Dashboard %s disconnected", conn.TeamID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg)
			h.mu.RLock()
			for conn := range h.dashboards {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToDashboards sends an event to every connected dashboard
// (implements service.Broadcaster).
func (h *Hub) BroadcastToDashboards(event string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		data, _ = json.Marshal(payload)
	}
	h.broadcast <- &Message{
		Type:    MessageType(event),
		Payload: data,
	}
}
