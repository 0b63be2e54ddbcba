package discover

import (
	"strconv"

	"backend-nextquest/internal/auth"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/ranking"
	"backend-nextquest/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		q, err := parseQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q.UserID = id.UserID

		res, err := svc.Discover(c.UserContext(), q)
		if err != nil {
			logging.Ctx(c.UserContext()).Error().Err(err).Msg("discover failed")
			return fiber.NewError(fiber.StatusInternalServerError, "spots unavailable")
		}
		return c.JSON(res)
	})
}

func parseQuery(c *fiber.Ctx) (Query, error) {
	criterion, err := ranking.ParseCriterion(c.Query("sort"))
	if err != nil {
		return Query{}, err
	}
	q := Query{Criterion: criterion, FavoritesOnly: c.QueryBool("favorites", false)}

	lat, lng := c.Query("lat"), c.Query("lng")
	if lat == "" && lng == "" {
		return q, nil
	}
	if lat == "" || lng == "" {
		return Query{}, fiber.NewError(fiber.StatusBadRequest, "lat and lng must be given together")
	}
	p := geo.Point{}
	if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return Query{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	if p.Lng, err = strconv.ParseFloat(lng, 64); err != nil {
		return Query{}, fiber.NewError(fiber.StatusBadRequest, "invalid lng")
	}
	if !p.Valid() {
		return Query{}, fiber.NewError(fiber.StatusBadRequest, "lat/lng out of range")
	}
	q.Position = &p
	return q, nil
}
