package position

import (
	"errors"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/logging"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Put("/", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		var req Report
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		fix, err := svc.Report(c.UserContext(), id.UserID, req)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(fix)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		fix, ok, err := svc.Current(c.UserContext(), id.UserID)
		if err != nil {
			return httpError(c, err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no position reported")
		}
		return c.JSON(fix)
	})

	r.Delete("/", func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		if err := svc.Clear(c.UserContext(), id.UserID); err != nil {
			return httpError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func httpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnavailable):
		logging.Ctx(c.UserContext()).Warn().Err(err).Msg("position store unavailable")
		return fiber.NewError(fiber.StatusServiceUnavailable, "position store unavailable")
	}
	logging.Ctx(c.UserContext()).Error().Err(err).Msg("position failure")
	return fiber.NewError(fiber.StatusInternalServerError, "position failure")
}
