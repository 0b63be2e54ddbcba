package review

import (
	"errors"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/spot"
	"backend-nextquest/internal/stream"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts review routes on a router whose path carries :spotID.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, events stream.Publisher) {
	r.Get("/", func(c *fiber.Ctx) error {
		reviews, err := svc.List(c.UserContext(), c.Params("spotID"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(reviews)
	})

	r.Get("/rating", func(c *fiber.Ctx) error {
		rating, err := svc.Rating(c.UserContext(), c.Params("spotID"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(fiber.Map{"rating": rating, "display": rating.Display()})
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		rev, err := svc.Create(c.UserContext(), reviewerOf(id), c.Params("spotID"), in)
		if err != nil {
			return httpError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.ReviewSaved, SpotID: rev.SpotID, UserID: id.UserID})
		return c.Status(fiber.StatusCreated).JSON(rev)
	})

	r.Put("/:reviewID", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		rev, err := svc.Update(c.UserContext(), reviewerOf(id), c.Params("spotID"), c.Params("reviewID"), in)
		if err != nil {
			return httpError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.ReviewSaved, SpotID: rev.SpotID, UserID: id.UserID})
		return c.JSON(rev)
	})

	r.Delete("/:reviewID", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		spotID := c.Params("spotID")
		if err := svc.Delete(c.UserContext(), reviewerOf(id), spotID, c.Params("reviewID")); err != nil {
			return httpError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.ReviewDeleted, SpotID: spotID, UserID: id.UserID})
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// reviewerOf is the name a review is filed under: the email when the token
// carries one.
func reviewerOf(id auth.Identity) string {
	if id.Email != "" {
		return id.Email
	}
	return id.UserID
}

func httpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotReviewer):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}
	return spot.HTTPError(c, err)
}
