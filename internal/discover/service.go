// Package discover assembles the ranked spot list a client shows: spots,
// aggregated ratings, the caller's favorites and position, fed through
// ranking.Rank. Secondary inputs that cannot be read fall back to defaults
// and are named in Response.Degraded.
package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-nextquest/internal/favorites"
	"backend-nextquest/internal/logging"
	"backend-nextquest/internal/metrics"
	"backend-nextquest/internal/position"
	"backend-nextquest/internal/ranking"
	"backend-nextquest/internal/shared/geo"
	"backend-nextquest/internal/spot"
)

type SpotLister interface {
	List(ctx context.Context) ([]spot.Spot, error)
}

type RatingSource interface {
	Refresh(ctx context.Context) (map[string]ranking.Rating, error)
	Board() *ranking.RatingBoard
}

type FavoriteSource interface {
	Ensure(ctx context.Context, userID string) (favorites.Set, error)
}

type PositionSource interface {
	Current(ctx context.Context, userID string) (position.Fix, bool, error)
}

type Query struct {
	UserID        string
	Criterion     ranking.Criterion
	FavoritesOnly bool
	// Position overrides the stored position when set.
	Position *geo.Point
}

type Item struct {
	Spot          spot.Spot      `json:"spot"`
	Rating        ranking.Rating `json:"rating"`
	RatingDisplay string         `json:"rating_display"`
	DistanceKm    *float64       `json:"distance_km,omitempty"`
	Favorite      bool           `json:"favorite"`
}

type Response struct {
	Spots            []Item   `json:"spots"`
	ProximitySkipped bool     `json:"proximity_skipped"`
	Degraded         []string `json:"degraded"`
}

type Service struct {
	spots     SpotLister
	ratings   RatingSource
	favorites FavoriteSource
	positions PositionSource
}

func NewService(spots SpotLister, ratings RatingSource, favs FavoriteSource, positions PositionSource) *Service {
	return &Service{spots: spots, ratings: ratings, favorites: favs, positions: positions}
}

// Discover fails only when the spot list itself cannot be read.
func (s *Service) Discover(ctx context.Context, q Query) (Response, error) {
	all, err := s.spots.List(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("list spots: %w", err)
	}

	degraded := []string{}
	log := logging.Ctx(ctx)

	if _, err := s.ratings.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("ratings unavailable, using last snapshot")
		degraded = append(degraded, "ratings")
	}
	ratings := s.ratings.Board().Snapshot()

	favs, err := s.favorites.Ensure(ctx, q.UserID)
	if err != nil {
		if !errors.Is(err, favorites.ErrNoUser) {
			log.Warn().Err(err).Str("user_id", q.UserID).Msg("favorites unavailable")
			degraded = append(degraded, "favorites")
		}
		favs = favorites.Set{}
	}

	// The stored position only matters for distance ordering.
	pos := q.Position
	if pos == nil && q.UserID != "" && q.Criterion == ranking.Proximity {
		fix, ok, err := s.positions.Current(ctx, q.UserID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("user_id", q.UserID).Msg("position unavailable")
			degraded = append(degraded, "position")
		case ok:
			p := fix.Point
			pos = &p
		}
	}

	start := time.Now()
	res := ranking.Rank(all, ranking.Options{
		Criterion:     q.Criterion,
		FavoritesOnly: q.FavoritesOnly,
		Favorites:     favs,
		Ratings:       ratings,
		Position:      pos,
	})
	metrics.RankDuration.WithLabelValues(string(q.Criterion)).Observe(time.Since(start).Seconds())
	for _, input := range degraded {
		metrics.RankDegraded.WithLabelValues(input).Inc()
	}

	items := make([]Item, 0, len(res.Spots))
	for _, r := range res.Spots {
		items = append(items, Item{
			Spot:          r.Spot,
			Rating:        r.Rating,
			RatingDisplay: r.Rating.Display(),
			DistanceKm:    r.DistanceKm,
			Favorite:      r.Favorite,
		})
	}
	return Response{Spots: items, ProximitySkipped: res.ProximitySkipped, Degraded: degraded}, nil
}
