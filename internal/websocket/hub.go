package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"optipos/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Send  chan []byte
	rooms map[string]bool
}

// clientMessage is what a client sends to opt into or out of a room
type clientMessage struct {
	Action string `json:"action"` // join-room, leave-room
	Room   string `json:"room"`
}

type roomEvent struct {
	client *Client
	room   string
}

type publishRequest struct {
	room    string
	payload []byte
}

// Hub maintains the set of active clients and dispatches room-scoped events
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	publish    chan publishRequest
	register   chan *Client
	unregister chan *Client
	join       chan roomEvent
	leave      chan roomEvent
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		publish:    make(chan publishRequest, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan roomEvent),
		leave:      make(chan roomEvent),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Publish implements events.Publisher. Delivery is best-effort: if the hub's
// queue is full the event is dropped and logged, never blocking the caller.
func (h *Hub) Publish(room string, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("failed to marshal event")
		return
	}
	select {
	case h.publish <- publishRequest{room: room, payload: payload}:
	default:
		log.Warn().Str("room", room).Str("event", event.Event).Msg("event dropped, hub queue full")
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug().Msg("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
			}
			h.mu.Unlock()
		case ev := <-h.join:
			h.mu.Lock()
			if h.rooms[ev.room] == nil {
				h.rooms[ev.room] = make(map[*Client]bool)
			}
			h.rooms[ev.room][ev.client] = true
			ev.client.rooms[ev.room] = true
			h.mu.Unlock()
		case ev := <-h.leave:
			h.mu.Lock()
			if members, ok := h.rooms[ev.room]; ok {
				delete(members, ev.client)
			}
			delete(ev.client.rooms, ev.room)
			h.mu.Unlock()
		case req := <-h.publish:
			h.mu.Lock()
			for client := range h.rooms[req.room] {
				select {
				case client.Send <- req.payload:
				default:
					h.removeClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeClient must be called with h.mu held
func (h *Hub) removeClient(client *Client) {
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
		}
	}
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		log.Debug().Msg("websocket client disconnected")
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps join/leave requests from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("websocket read error")
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Room == "" {
			continue
		}
		switch msg.Action {
		case "join-room":
			c.Hub.join <- roomEvent{client: c, room: msg.Room}
		case "leave-room":
			c.Hub.leave <- roomEvent{client: c, room: msg.Room}
		}
	}
}

// ServeWs handles websocket requests from the peer
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	// Authenticate via token query param
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Warn().Msg("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		log.Warn().Err(err).Msg("websocket connection rejected: invalid token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Warn().Msg("websocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	role, _ := claims["role"].(string)
	if role != "admin" && role != "staff" {
		log.Warn().Str("role", role).Msg("websocket connection rejected: inadequate permissions")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), rooms: make(map[string]bool)}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
