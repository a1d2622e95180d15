package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"reviewapi/internal/service"
)

// Dependencies are the collaborators the HTTP routes are wired to.
type Dependencies struct {
	DB      *sql.DB
	Reviews service.ReviewService
	Media   MediaOpener
	// SubmitLimit guards review submission. Nil disables it.
	SubmitLimit fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/media/*", ServeMedia(deps.Media))

	app.Get("/businesses/:businessId/reviews", ListReviews(deps.Reviews))
	app.Put("/businesses/:businessId/reviews/:reviewId/status", UpdateReviewStatus(deps.Reviews))
	app.Delete("/businesses/:businessId/reviews/:reviewId", DeleteReview(deps.Reviews))

	create := []fiber.Handler{CreateReview(deps.Reviews)}
	if deps.SubmitLimit != nil {
		create = append([]fiber.Handler{deps.SubmitLimit}, create...)
	}
	app.Post("/reviews", create...)
}
