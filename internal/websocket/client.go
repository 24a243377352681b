package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/pkg/rag/response"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	turnQueue      = 4
)

// TurnRunner streams one search turn through emit.
type TurnRunner func(ctx context.Context, request *dto.SearchRequest, emit func(response.Event) error) error

// Client is a middleman between the websocket connection and the search service.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	ID   uuid.UUID

	// Buffered channel of outbound frames, one JSON document each.
	Send chan []byte

	run    TurnRunner
	turns  chan dto.SearchRequest
	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, run TurnRunner) *Client {
	return &Client{
		Hub:   hub,
		Conn:  conn,
		ID:    uuid.New(),
		Send:  make(chan []byte, sendBuffer),
		run:   run,
		turns: make(chan dto.SearchRequest, turnQueue),
	}
}

// readPump decodes {query, thread_id} frames and queues them as turns.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.markClosed()
		close(c.turns)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("WS", "Unexpected close", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
			}
			return
		}

		var req dto.SearchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.sendEvent(response.Event{Type: response.EventError, Message: "Invalid request: expected {\"query\", \"thread_id\"}"})
			continue
		}

		if !c.queueTurn(ctx, req) {
			return
		}
	}
}

// queueTurn hands req to turnPump, or tells the client the queue is full.
// It reports false once ctx is done.
func (c *Client) queueTurn(ctx context.Context, req dto.SearchRequest) bool {
	select {
	case c.turns <- req:
	case <-ctx.Done():
		return false
	default:
		c.sendEvent(response.Event{Type: response.EventError, Message: response.QueueFullMessage})
	}
	return true
}

// turnPump runs queued turns one at a time, so a socket never races itself on a thread.
func (c *Client) turnPump(ctx context.Context) {
	for req := range c.turns {
		req := req
		err := c.run(ctx, &req, c.emit)
		if err != nil {
			c.sendEvent(response.Event{Type: response.EventError, Message: response.UserMessage(err)})
		}
	}
}

// writePump writes one frame per queued document and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit forwards a turn event. Step events carry nothing for the client and are
// only used to notice a closed socket between steps.
func (c *Client) emit(e response.Event) error {
	if e.Type == response.EventStep {
		if c.isClosed() {
			return context.Canceled
		}
		return nil
	}
	if !c.sendEvent(e) {
		return context.Canceled
	}
	return nil
}

func (c *Client) sendEvent(e response.Event) bool {
	data, err := json.Marshal(e)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	case <-time.After(writeWait):
		return false
	}
}

// trySend never blocks; the hub uses it for broadcasts.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
