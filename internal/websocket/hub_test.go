package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/events"
	"heritage-archive-be/pkg/rag/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	go hub.Run()

	a := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	b := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, time.Millisecond)

	hub.Broadcast(events.NewArchiveIngested("a-1", "Songket", "node"))

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var frame map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &frame))
			assert.Equal(t, events.TypeArchiveIngested, frame["type"])
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHubBroadcastSkipsFullAndClosedClients(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	go hub.Run()

	full := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	full.Send <- []byte("pending")
	gone := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	gone.markClosed()
	hub.register <- full
	hub.register <- gone
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, time.Millisecond)

	hub.Broadcast(events.NewArchiveIngested("a-1", "Songket", "node"))

	assert.Len(t, full.Send, 1)
	assert.Len(t, gone.Send, 0)

	hub.unregister <- gone
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)
	_, open := <-gone.Send
	assert.False(t, open)
}

func TestClientQueueTurn(t *testing.T) {
	tests := []struct {
		name      string
		queued    int
		wantQueue int
		wantFrame string
	}{
		{name: "room in the queue", queued: 0, wantQueue: 1},
		{name: "queue full", queued: turnQueue, wantQueue: turnQueue, wantFrame: response.QueueFullMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{ID: uuid.New(), Send: make(chan []byte, 1), turns: make(chan dto.SearchRequest, turnQueue)}
			for i := 0; i < tt.queued; i++ {
				c.turns <- dto.SearchRequest{Query: "songket"}
			}

			assert.True(t, c.queueTurn(context.Background(), dto.SearchRequest{Query: "keris"}))
			assert.Len(t, c.turns, tt.wantQueue)

			if tt.wantFrame == "" {
				assert.Empty(t, c.Send)
				return
			}
			var frame response.Event
			require.NoError(t, json.Unmarshal(<-c.Send, &frame))
			assert.Equal(t, response.EventError, frame.Type)
			assert.Equal(t, tt.wantFrame, frame.Message)
			assert.NotEqual(t, response.ConflictMessage, frame.Message)
		})
	}

	t.Run("stops once the socket context is done", func(t *testing.T) {
		c := &Client{ID: uuid.New(), Send: make(chan []byte, 1), turns: make(chan dto.SearchRequest)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, c.queueTurn(ctx, dto.SearchRequest{Query: "keris"}))
	})
}

func TestClientEmitDropsSteps(t *testing.T) {
	tests := []struct {
		name      string
		closed    bool
		event     response.Event
		wantErr   bool
		wantFrame bool
	}{
		{name: "step on open socket", event: response.Event{Type: response.EventStep, Text: "tag"}},
		{name: "step on closed socket", closed: true, event: response.Event{Type: response.EventStep, Text: "tag"}, wantErr: true},
		{name: "searching is forwarded", event: response.Event{Type: response.EventSearching, Query: "keris"}, wantFrame: true},
		{name: "searching on closed socket", closed: true, event: response.Event{Type: response.EventSearching, Query: "keris"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{ID: uuid.New(), Send: make(chan []byte, 1), closed: tt.closed}

			err := c.emit(tt.event)

			if tt.wantErr {
				assert.ErrorIs(t, err, context.Canceled)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFrame, len(c.Send) == 1)
		})
	}
}
