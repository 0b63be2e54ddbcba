package storage

import (
	"errors"
	"io"
	"net/http"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes serves blobs and a generic authenticated upload.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/blobs/:key", func(c *fiber.Ctx) error {
		data, err := svc.Open(c.UserContext(), c.Params("key"))
		if err != nil {
			return HTTPError(c, err)
		}
		c.Set(fiber.HeaderContentType, http.DetectContentType(data))
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		return c.Send(data)
	})

	r.Post("/storage/upload", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		data, err := ReadFormFile(c, "file", svc.MaxBytes())
		if err != nil {
			return HTTPError(c, err)
		}
		kind := c.FormValue("kind", "file")
		obj, err := svc.Upload(c.UserContext(), id.UserID, kind, data)
		if err != nil {
			return HTTPError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})
}

// ReadFormFile reads a multipart file field, refusing files over limit.
func ReadFormFile(c *fiber.Ctx, field string, limit int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+" file required")
	}
	if fh.Size > limit {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// HTTPError maps storage errors to responses.
func HTTPError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrBlobNotFound):
		return fiber.NewError(fiber.StatusNotFound, ErrBlobNotFound.Error())
	case errors.Is(err, ErrEmptyUpload), errors.Is(err, ErrNotAnImage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	logging.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("storage failure")
	return fiber.NewError(fiber.StatusBadGateway, "blob store write failed")
}
