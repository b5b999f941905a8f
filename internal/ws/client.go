package ws

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sketchsync/server/internal/engine"
	"github.com/sketchsync/server/internal/ratelimit"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 64 * 1024
	messagesPerSecond = 200
	messageBurst      = 400
)

var errSendBufferFull = errors.New("send buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// One websocket connection. Implements engine.Conn; the reader goroutine
// feeds frames to the engine in arrival order, the writer drains the send
// buffer.
type Client struct {
	eng         *engine.Engine
	conn        *websocket.Conn
	send        chan []byte
	rateLimiter *ratelimit.Limiter
	clientID    string

	mu     sync.Mutex
	closed bool
}

func (c *Client) ID() string {
	return c.clientID
}

// Queues a frame for delivery. Never blocks: a client that cannot keep up
// has its send buffer closed, which ends its writer and disconnects it.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errSendBufferFull
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.closed = true
		close(c.send)
		return errSendBufferFull
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Upgrades the HTTP request and hands the connection to the engine
func ServeWs(eng *engine.Engine, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	client := &Client{
		eng:         eng,
		conn:        conn,
		send:        make(chan []byte, 512),
		rateLimiter: ratelimit.NewLimiter(messagesPerSecond, messageBurst),
		clientID:    uuid.NewString(),
	}

	eng.Connect(client)

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		// Cleanup must complete before this goroutine exits
		c.eng.Disconnect(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !c.rateLimiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				log.Printf("⚠️ Rate limit exceeded for client %s (warning #%d)",
					c.clientID, rateLimitWarnings)
			}
			if rateLimitWarnings > 1000 {
				log.Printf("🚫 Disconnecting client %s for excessive rate limit violations", c.clientID)
				return
			}
			continue
		}

		c.eng.HandleMessage(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
