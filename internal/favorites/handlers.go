package favorites

import (
	"context"
	"errors"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/stream"

	"github.com/gofiber/fiber/v2"
)

type SpotChecker interface {
	RequireSaved(ctx context.Context, id string) error
}

type toggleResponse struct {
	SpotID    string `json:"spot_id"`
	Favorite  bool   `json:"favorite"`
	Persisted bool   `json:"persisted"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes mounts favorites routes. Every route needs an identity.
func RegisterRoutes(r fiber.Router, mgr *Manager, spots SpotChecker, authMiddleware fiber.Handler, events stream.Publisher) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		set, err := mgr.Ensure(c.UserContext(), id.UserID)
		if errors.Is(err, ErrDataUnavailable) {
			return c.JSON(fiber.Map{"spot_ids": []string{}, "degraded": true})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"spot_ids": set.IDs(), "degraded": false})
	})

	r.Post("/:spotID/toggle", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		spotID := c.Params("spotID")
		if err := spots.RequireSaved(c.UserContext(), spotID); err != nil {
			return spot.HTTPError(c, err)
		}

		_, member, err := mgr.Toggle(c.UserContext(), id.UserID, spotID)
		switch {
		case errors.Is(err, ErrDataUnavailable):
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		case errors.Is(err, ErrRemoteWriteFailed):
			events.Publish(c.UserContext(), stream.UserTopic(id.UserID), stream.Event{Type: stream.FavoritesChanged, SpotID: spotID, UserID: id.UserID})
			return c.Status(fiber.StatusAccepted).JSON(toggleResponse{SpotID: spotID, Favorite: member, Error: err.Error()})
		case err != nil:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		events.Publish(c.UserContext(), stream.UserTopic(id.UserID), stream.Event{Type: stream.FavoritesChanged, SpotID: spotID, UserID: id.UserID})
		return c.JSON(toggleResponse{SpotID: spotID, Favorite: member, Persisted: true})
	})

	// Sign-out hook: drops the in-memory set; the stored profile is untouched.
	r.Post("/forget", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		mgr.Forget(id.UserID)
		return c.SendStatus(fiber.StatusNoContent)
	})
}
