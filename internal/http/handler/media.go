package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"reviewapi/internal/media"
	"reviewapi/internal/storage"
)

// MediaOpener streams stored review photos.
type MediaOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error)
}

// ServeMedia streams a stored review photo.
//
// @Summary Fetch a review photo
// @Tags media
// @Produce image/jpeg
// @Produce image/png
// @Param path path string true "Storage path, e.g. reviews/<uuid>.jpg"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /media/{path} [get]
func ServeMedia(store MediaOpener) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("*")

		rc, info, err := store.Open(c.UserContext(), key)
		if err != nil {
			if errors.Is(err, media.ErrInvalidPath) || errors.Is(err, storage.ErrObjectNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
			}
			return writeServiceError(c, err, map[string]string{"media_key": key})
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, `"`+info.ETag+`"`)
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")

		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// The body stream is closed once the response has been written.
		return c.SendStream(rc, size)
	}
}
