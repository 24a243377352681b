package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one search socket until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, run TurnRunner) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newClient(hub, conn, run)
	client.Hub.register <- client

	go client.writePump()
	go client.turnPump(ctx)
	client.readPump(ctx)
}
