package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/util/log"
)

/*
The websocket hub pushes a notification to every connected page whenever a new
frame is drawn, and accepts pointer events from the page so a drag can be
followed without an HTTP round trip per move.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// Event types pushed to websocket clients.
const (
	EventFrame = "frame"
	EventError = "error"
)

// Event is a message pushed to websocket clients.
type Event struct {
	Type   string `json:"type"`
	Digest string `json:"digest,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PointerMessage is a pointer event sent by a websocket client.
type PointerMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Hub tracks connected websocket clients and fans events out to them.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	direct     chan directMessage
	done       chan struct{}
}

type directMessage struct {
	client *wsClient
	data   []byte
}

// NewHub returns a hub. Run must be called for it to deliver anything.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

// Run delivers events until ctx is canceled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				select {
				case msg.client.send <- msg.data:
				default:
				}
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast queues e for every client. It never blocks; if the hub is backed
// up the event is dropped, since a later frame supersedes it.
func (h *Hub) Broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	hub  *Hub
	ctrl *controller.Controller
	conn *websocket.Conn
	send chan []byte
}

// newWebsocketHandler upgrades the connection and registers it with the hub.
func newWebsocketHandler(ctrl *controller.Controller, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debugw(ctx, "websocket upgrade failed", "error", err)
			return
		}
		client := &wsClient{hub: hub, ctrl: ctrl, conn: conn, send: make(chan []byte, sendBuffer)}
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}
		log.Debugw(ctx, "websocket connected", "remote", r.RemoteAddr)
		go client.writePump()
		go client.readPump(context.WithoutCancel(ctx))
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugw(ctx, "websocket closed", "error", err)
			}
			return
		}
		var msg PointerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(Event{Type: EventError, Error: "invalid message: " + err.Error()})
			continue
		}
		if _, err := dispatchPointer(ctx, c.ctrl, msg.Type, msg.X, msg.Y); err != nil {
			c.reply(Event{Type: EventError, Error: err.Error()})
		}
	}
}

// reply queues e for this client only. Delivery goes through the hub, which
// owns the send channel.
func (c *wsClient) reply(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	case <-c.hub.done:
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
