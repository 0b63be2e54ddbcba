package spot

import (
	"errors"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/shared/geo"
	"backend-nextquest/internal/stream"
	"backend-nextquest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type lookupRequest struct {
	Placemark Placemark `json:"placemark"`
	Category  Category  `json:"category"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, events stream.Publisher) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var req Spot
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.ID != "" {
			return fiber.NewError(fiber.StatusBadRequest, ErrAlreadySaved.Error())
		}
		if err := validation.Struct(req.Fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Create(c.UserContext(), id.UserID, Draft{Fields: req.Fields})
		if err != nil {
			return HTTPError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.SpotSaved, SpotID: p.ID, UserID: id.UserID})
		return c.Status(fiber.StatusCreated).JSON(p.Spot())
	})

	r.Get("/", func(c *fiber.Ctx) error {
		spots, err := svc.List(c.UserContext())
		if err != nil {
			return HTTPError(c, err)
		}
		return c.JSON(spots)
	})

	r.Post("/lookup", func(c *fiber.Ctx) error {
		var req lookupRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Category != "" && !req.Category.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, ErrInvalidCategory.Error())
		}
		d := DraftFromPlacemark(req.Placemark, req.Category)
		return c.JSON(Spot{Fields: d.Fields})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return HTTPError(c, err)
		}
		return c.JSON(p.Spot())
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var req Fields
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := validation.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Replace(c.UserContext(), id.UserID, c.Params("id"), req)
		if err != nil {
			return HTTPError(c, err)
		}
		events.Publish(c.UserContext(), stream.TopicSpots, stream.Event{Type: stream.SpotSaved, SpotID: p.ID, UserID: id.UserID})
		return c.JSON(p.Spot())
	})

	r.Get("/:id/maps-url", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return HTTPError(c, err)
		}
		return c.JSON(fiber.Map{"url": geo.MapsURL(p.Fields.Coordinate(), p.Fields.Name)})
	})
}

// HTTPError maps spot errors to responses. Other packages that act on spots
// use it too so NotPersisted reads the same everywhere.
func HTTPError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotPersisted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrAlreadySaved):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	logging.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("spot store failure")
	return fiber.NewError(fiber.StatusInternalServerError, "spot store unavailable")
}
