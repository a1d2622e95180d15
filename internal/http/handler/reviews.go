package handler

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"reviewapi/internal/http/middleware"
	"reviewapi/internal/media"
	"reviewapi/internal/service"
)

type createReviewRequest struct {
	BusinessID string `json:"business_id" form:"business_id"`
	Comment    string `json:"comment" form:"comment"`
	Rating     int    `json:"rating" form:"rating"`
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

// ListReviews returns one page of a business' reviews, newest first.
//
// @Summary List reviews of a business
// @Tags reviews
// @Produce json
// @Param businessId path string true "Business ID (UUID)"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} service.ReviewPage
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /businesses/{businessId}/reviews [get]
func ListReviews(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		businessID := c.Params("businessId")
		page := c.QueryInt("page", 1)

		res, err := svc.List(c.UserContext(), businessID, page)
		if err != nil {
			return writeServiceError(c, err, map[string]string{"business_id": businessID})
		}
		return c.JSON(res)
	}
}

// CreateReview submits a review with optional photos. The review starts as pending.
//
// @Summary Submit a review
// @Tags reviews
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param business_id formData string true "Business ID (UUID)"
// @Param comment formData string true "At least 10 characters"
// @Param rating formData int true "1 to 5"
// @Param images[] formData file false "JPEG or PNG, up to 5 MiB each"
// @Success 201 {object} successPayload{data=model.Review}
// @Failure 401 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /reviews [post]
func CreateReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := middleware.PrincipalFrom(c)
		if p == nil {
			return writeServiceError(c, service.ErrUnauthorized, nil)
		}

		in, err := parseCreateReview(c)
		if err != nil {
			return writeValidationError(c, &service.ValidationError{Errors: map[string][]string{
				"body": {"The request body must be valid JSON."},
			}})
		}

		review, err := svc.Create(c.UserContext(), p, in)
		if err != nil {
			return writeServiceError(c, err, map[string]string{"business_id": in.BusinessID})
		}
		return writeSuccess(c, fiber.StatusCreated, "Review submitted and pending moderation", review)
	}
}

func parseCreateReview(c *fiber.Ctx) (service.CreateReviewInput, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req createReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return service.CreateReviewInput{}, err
		}
		return service.CreateReviewInput{BusinessID: req.BusinessID, Comment: req.Comment, Rating: req.Rating}, nil
	}

	// A rating that is not an integer is reported by validation as missing.
	rating, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	in := service.CreateReviewInput{
		BusinessID: c.FormValue("business_id"),
		Comment:    c.FormValue("comment"),
		Rating:     rating,
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, field := range []string{"images[]", "images"} {
			for _, fh := range form.File[field] {
				in.Images = append(in.Images, fileUpload(fh))
			}
		}
	}
	return in, nil
}

func fileUpload(fh *multipart.FileHeader) media.FileUpload {
	return media.FileUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UpdateReviewStatus moderates a review.
//
// @Summary Change the moderation status of a review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param businessId path string true "Business ID (UUID)"
// @Param reviewId path string true "Review ID (UUID)"
// @Param body body statusRequest true "pending, approved or rejected"
// @Success 200 {object} successPayload{data=service.StatusChange}
// @Failure 401 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /businesses/{businessId}/reviews/{reviewId}/status [put]
func UpdateReviewStatus(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		businessID, reviewID := c.Params("businessId"), c.Params("reviewId")

		// An unreadable body leaves status empty, which validation rejects.
		var req statusRequest
		_ = c.BodyParser(&req)

		res, err := svc.UpdateStatus(c.UserContext(), middleware.PrincipalFrom(c), businessID, reviewID, req.Status)
		if err != nil {
			return writeServiceError(c, err, map[string]string{"business_id": businessID, "review_id": reviewID})
		}
		return writeSuccess(c, fiber.StatusOK, "Review status updated", res)
	}
}

// DeleteReview removes a review and its photos.
//
// @Summary Delete a review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param businessId path string true "Business ID (UUID)"
// @Param reviewId path string true "Review ID (UUID)"
// @Success 200 {object} successPayload{data=service.Removal}
// @Failure 401 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /businesses/{businessId}/reviews/{reviewId} [delete]
func DeleteReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		businessID, reviewID := c.Params("businessId"), c.Params("reviewId")

		res, err := svc.Delete(c.UserContext(), middleware.PrincipalFrom(c), businessID, reviewID)
		if err != nil {
			return writeServiceError(c, err, map[string]string{"business_id": businessID, "review_id": reviewID})
		}
		return writeSuccess(c, fiber.StatusOK, "Review deleted", res)
	}
}
