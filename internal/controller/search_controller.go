// FILE: internal/controller/search_controller.go
package controller

import (
	"bufio"
	"context"
	"errors"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/pkg/serverutils"
	"heritage-archive-be/internal/service"
	ws "heritage-archive-be/internal/websocket"
	"heritage-archive-be/pkg/rag/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	SearchStream(ctx *fiber.Ctx) error
	SearchSocket(ctx *fiber.Ctx) error
	GetThread(ctx *fiber.Ctx) error
	ResetThread(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
	hub     *ws.Hub
	logger  logger.ILogger
}

func NewSearchController(service service.ISearchService, hub *ws.Hub, log logger.ILogger) ISearchController {
	return &searchController{service: service, hub: hub, logger: log}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai-search")
	h.Post("/", c.Search)
	h.Post("/stream", c.SearchStream)
	h.Get("/ws", c.SearchSocket)
	h.Get("/threads/:thread_id", c.GetThread)
	h.Delete("/threads/:thread_id", c.ResetThread)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search completed", res))
}

// SearchStream answers with server-sent events. Failures after the stream opened arrive as an error event.
func (c *searchController) SearchStream(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber context is recycled once the handler returns, so the writer only sees copies.
	base := context.WithoutCancel(ctx.UserContext())
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(base)
		defer cancel()

		sse := &sseWriter{w: w, gone: cancel}
		err := c.service.SearchStream(streamCtx, &req, sse.emit)
		if err == nil {
			return
		}
		if !sse.emitted {
			_ = sse.emit(response.Event{Type: response.EventError, Message: response.UserMessage(err)})
			return
		}
		c.logger.Warn("HTTP", "Event stream ended early", map[string]interface{}{
			"thread_id": req.ThreadId,
			"error":     err.Error(),
		})
	}))

	return nil
}

// SearchSocket upgrades to a websocket that accepts {query, thread_id} frames and streams each turn back.
func (c *searchController) SearchSocket(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		ws.ServeWs(c.hub, conn, c.service.SearchStream)
	})(ctx)
}

func (c *searchController) GetThread(ctx *fiber.Ctx) error {
	res, err := c.service.Snapshot(ctx.UserContext(), ctx.Params("thread_id"))
	if err != nil {
		if errors.Is(err, service.ErrThreadNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Thread snapshot", res))
}

func (c *searchController) ResetThread(ctx *fiber.Ctx) error {
	if err := c.service.Reset(ctx.UserContext(), ctx.Params("thread_id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Thread reset", nil))
}

// sseWriter flushes every event so a dropped client shows up on the next write.
type sseWriter struct {
	w       *bufio.Writer
	gone    func()
	emitted bool
}

func (s *sseWriter) emit(e response.Event) error {
	s.emitted = true
	err := response.WriteSSE(s.w, e)
	if err == nil {
		err = s.w.Flush()
	}
	if err != nil {
		// client went away
		s.gone()
		return err
	}
	return nil
}
