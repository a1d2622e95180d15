package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"reviewapi/internal/http/middleware"
	"reviewapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool                `json:"success"`
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"request_id"`
}

// successPayload wraps write responses.
type successPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Code:      code,
		Message:   message,
		RequestID: middleware.RequestIDFrom(c),
	})
}

func writeValidationError(c *fiber.Ctx, verr *service.ValidationError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorPayload{
		Code:      "VALIDATION_ERROR",
		Message:   "The given data was invalid.",
		Errors:    verr.Errors,
		RequestID: middleware.RequestIDFrom(c),
	})
}

func writeSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(successPayload{Success: true, Message: message, Data: data})
}

// writeServiceError translates service errors into HTTP responses. Anything
// unrecognised is logged with the given fields and reported as a 500.
func writeServiceError(c *fiber.Ctx, err error, fields map[string]string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeValidationError(c, verr)
	case errors.Is(err, service.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "not allowed to manage reviews of this business")
	case errors.Is(err, service.ErrBusinessNotFound):
		return writeError(c, fiber.StatusNotFound, "BUSINESS_NOT_FOUND", "business not found")
	case errors.Is(err, service.ErrReviewNotFound):
		return writeError(c, fiber.StatusNotFound, "REVIEW_NOT_FOUND", "review not found")
	}

	ev := zerolog.Ctx(c.UserContext()).Error().Err(err).
		Str("request_id", middleware.RequestIDFrom(c)).
		Str("method", c.Method()).
		Str("path", c.Path())
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("request failed")

	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			if fe != nil && status < fiber.StatusInternalServerError {
				return writeError(c, status, "REQUEST_ERROR", fe.Message)
			}
			zerolog.Ctx(c.UserContext()).Error().Err(err).
				Str("request_id", middleware.RequestIDFrom(c)).
				Str("path", c.Path()).
				Msg("unhandled error")
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
