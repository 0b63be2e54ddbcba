package photo

import (
	"errors"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/storage"
	"backend-nextquest/internal/stream"
	"backend-nextquest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type describeRequest struct {
	Description string `json:"description" validate:"max=2000"`
}

// RegisterRoutes mounts photo routes on a router whose path carries :spotID.
// maxBytes bounds a single image.
func RegisterRoutes(r fiber.Router, svc *Service, maxBytes int64, authMiddleware fiber.Handler, events stream.Publisher) {
	r.Get("/", func(c *fiber.Ctx) error {
		photos, err := svc.List(c.UserContext(), c.Params("spotID"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(photos)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		description := c.FormValue("description")
		if err := validation.Var(description, "max=2000"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "description must be at most 2000 characters")
		}
		image, err := storage.ReadFormFile(c, "image", maxBytes)
		if err != nil {
			return httpError(c, err)
		}
		p, err := svc.Add(c.UserContext(), id.UserID, reviewerOf(id), c.Params("spotID"), description, image)
		if err != nil {
			return httpError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.PhotoSaved, SpotID: p.SpotID, UserID: id.UserID})
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Put("/:photoID", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var req describeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := validation.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Describe(c.UserContext(), reviewerOf(id), c.Params("spotID"), c.Params("photoID"), req.Description)
		if err != nil {
			return httpError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.PhotoSaved, SpotID: p.SpotID, UserID: id.UserID})
		return c.JSON(p)
	})
}

func reviewerOf(id auth.Identity) string {
	if id.Email != "" {
		return id.Email
	}
	return id.UserID
}

func httpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, spot.ErrNotPersisted), errors.Is(err, spot.ErrNotFound):
		return spot.HTTPError(c, err)
	}
	return storage.HTTPError(c, err)
}
