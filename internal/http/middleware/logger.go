package middleware

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger logs each HTTP request as one JSON line on stdout.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.Local)
}

// LoggerWithWriter logs each HTTP request as one JSON line on w with the fields
// request_id, method, path, status, latency (milliseconds) and ts (RFC 3339 in loc).
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	l := zerolog.New(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		latency := float64(time.Since(start).Microseconds()) / 1000

		ev := l.Info()
		if status >= fiber.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("request_id", RequestIDFrom(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", latency).
			Str("ts", start.In(loc).Format(time.RFC3339)).
			Send()

		return err
	}
}

// ContextLogger places a copy of base tagged with the request ID into the
// request's user context, where zerolog.Ctx can find it.
func ContextLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := base.With().Str("request_id", RequestIDFrom(c)).Logger()
		c.SetUserContext(l.WithContext(c.UserContext()))
		return c.Next()
	}
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
