package ranking

import (
	"fmt"
	"slices"
	"strings"

	"backend-nextquest/internal/shared/geo"
	"backend-nextquest/internal/spot"
)

// Criterion selects the ordering Rank applies.
type Criterion string

const (
	Alphabetical Criterion = "alphabetical"
	Proximity    Criterion = "proximity"
	ByRating     Criterion = "rating"
)

// ParseCriterion accepts the query-string form of a criterion. Empty means
// Alphabetical.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return Alphabetical, nil
	case Alphabetical, Proximity, ByRating:
		return c, nil
	default:
		return "", fmt.Errorf("unknown sort %q: want alphabetical, proximity or rating", s)
	}
}

// Membership answers whether a spot id is a favorite.
type Membership interface {
	Contains(spotID string) bool
}

type Options struct {
	Criterion     Criterion
	FavoritesOnly bool
	// Favorites may be nil; with FavoritesOnly set that yields no spots.
	Favorites Membership
	// Ratings is keyed by spot id. Missing entries are Unrated.
	Ratings map[string]Rating
	// Position is nil when the device location is unknown.
	Position *geo.Point
}

type Ranked struct {
	Spot       spot.Spot `json:"spot"`
	Rating     Rating    `json:"rating"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	Favorite   bool      `json:"favorite"`
}

type Result struct {
	Spots []Ranked `json:"spots"`
	// ProximitySkipped is set when Proximity was requested without a position.
	ProximitySkipped bool `json:"proximity_skipped"`
}

// Rank filters and orders spots. It never mutates its inputs and returns a
// fresh slice; equal keys keep their input order. Drafts are dropped.
func Rank(spots []spot.Spot, opts Options) Result {
	var position *geo.Point
	if opts.Position != nil && opts.Position.Valid() {
		p := *opts.Position
		position = &p
	}

	out := make([]Ranked, 0, len(spots))
	for _, s := range spots {
		if _, err := spot.RequirePersisted(s); err != nil {
			continue
		}
		fav := opts.Favorites != nil && opts.Favorites.Contains(s.ID)
		if opts.FavoritesOnly && !fav {
			continue
		}
		r := Ranked{Spot: s, Rating: opts.Ratings[s.ID], Favorite: fav}
		if position != nil {
			d := geo.DistanceKm(*position, s.Coordinate())
			r.DistanceKm = &d
		}
		out = append(out, r)
	}

	res := Result{Spots: out}
	switch opts.Criterion {
	case Proximity:
		if position == nil {
			res.ProximitySkipped = true
			break
		}
		slices.SortStableFunc(out, func(a, b Ranked) int {
			switch {
			case *a.DistanceKm < *b.DistanceKm:
				return -1
			case *a.DistanceKm > *b.DistanceKm:
				return 1
			}
			return 0
		})
	case ByRating:
		slices.SortStableFunc(out, func(a, b Ranked) int {
			return ratedBefore(a.Rating, b.Rating)
		})
	default:
		slices.SortStableFunc(out, func(a, b Ranked) int {
			return strings.Compare(a.Spot.Name, b.Spot.Name)
		})
	}
	return res
}
