package serverutils

import (
	"errors"

	"heritage-archive-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the standard envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps an error to an HTTP status and a client-safe message.
func StatusFor(err error) (int, string) {
	var validationErr *ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Error()
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, rag.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, rag.ErrConcurrentTurnConflict):
		return fiber.StatusConflict, "another search is running in this conversation"
	case errors.Is(err, rag.ErrTimeout):
		return fiber.StatusGatewayTimeout, "the search took too long to complete"
	case errors.Is(err, rag.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway, "the assistant is unavailable right now"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
