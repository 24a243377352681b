// FILE: internal/controller/health_controller.go
package controller

import (
	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Metrics() fiber.Handler
}

type healthController struct {
	instanceID string
	clients    ClientCounter
	gatherer   prometheus.Gatherer
}

// NewHealthController builds the health and metrics endpoints. gatherer may be nil when metrics are off.
func NewHealthController(instanceID string, clients ClientCounter, gatherer prometheus.Gatherer) IHealthController {
	return &healthController{instanceID: instanceID, clients: clients, gatherer: gatherer}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{Status: "ok", InstanceId: c.instanceID}
	if c.clients != nil {
		res.Clients = c.clients.ClientCount()
	}
	return ctx.JSON(serverutils.SuccessResponse("Healthy", res))
}

func (c *healthController) Metrics() fiber.Handler {
	if c.gatherer == nil {
		return func(ctx *fiber.Ctx) error { return fiber.ErrNotFound }
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}))
}
