// Package ws is the websocket transport for chat sessions. Each client runs
// one read pump and one write pump; the read side turns inbound frames into
// relay events, the write side drains the session's buffered send channel so
// a slow browser never blocks the broadcaster.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chatrelay/chat-system/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Hooks carries optional callbacks into the surrounding system.
type Hooks struct {
	// OnPing fires on each keepalive tick. Used to refresh the presence TTL.
	OnPing func()
}

// Client adapts a websocket connection to relay.Conn.
type Client struct {
	conn *websocket.Conn
	log  zerolog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	session *relay.Session
}

func NewClient(conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		log:    log,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send queues a payload without blocking. False means the buffer was full or
// the client is closed; the broadcaster evicts on false.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.closed:
		return false
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close is idempotent. It stops the write pump and closes the socket, which
// in turn unblocks the read pump.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// Run attaches the client to its session and starts both pumps. The session
// must already be admitted to the registry.
func (c *Client) Run(session *relay.Session, broadcaster *relay.Broadcaster, hooks Hooks) {
	c.session = session
	go c.writePump(hooks)
	go c.readPump(broadcaster)
}

// inboundMessage is the chat-send frame clients emit.
type inboundMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

func (c *Client) readPump(broadcaster *relay.Broadcaster) {
	defer func() {
		broadcaster.Enqueue(relay.Event{Kind: relay.EventDisconnect, Session: c.session})
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Str("session_id", c.session.ID()).Msg("websocket read error")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Warn().Err(err).Str("session_id", c.session.ID()).Msg("dropping malformed chat frame")
			continue
		}

		broadcaster.Enqueue(relay.Event{
			Kind:    relay.EventChatSend,
			Session: c.session,
			Sender:  msg.Sender,
			Content: msg.Content,
		})
	}
}

func (c *Client) writePump(hooks Hooks) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			if hooks.OnPing != nil {
				hooks.OnPing()
			}
		}
	}
}
