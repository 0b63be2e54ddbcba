package ranking

import "strconv"

// Rating is the aggregated rating of one spot. The zero value is Unrated.
type Rating struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Unrated marks a spot with no reviews. It is distinct from a mean of zero.
var Unrated = Rating{}

// UnratedDisplay is shown in place of a number for unrated spots.
const UnratedDisplay = "N/A"

// Rated reports whether r carries at least one review.
func (r Rating) Rated() bool {
	return r.Count > 0
}

// Display renders the mean with one decimal, or UnratedDisplay.
func (r Rating) Display() string {
	if !r.Rated() {
		return UnratedDisplay
	}
	return strconv.FormatFloat(r.Mean, 'f', 1, 64)
}

// Aggregate returns the arithmetic mean of ratings. Values are averaged as
// given; range checks belong to the write path.
func Aggregate(ratings []int) Rating {
	if len(ratings) == 0 {
		return Unrated
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return Rating{Mean: float64(sum) / float64(len(ratings)), Count: len(ratings)}
}

// FromTotals builds a Rating from a precomputed sum and count, as returned by
// a grouped database query.
func FromTotals(sum int64, count int) Rating {
	if count <= 0 {
		return Unrated
	}
	return Rating{Mean: float64(sum) / float64(count), Count: count}
}

// ratedBefore orders rated before unrated, then by descending mean.
func ratedBefore(a, b Rating) int {
	switch {
	case a.Rated() && !b.Rated():
		return -1
	case !a.Rated() && b.Rated():
		return 1
	case !a.Rated() && !b.Rated():
		return 0
	case a.Mean > b.Mean:
		return -1
	case a.Mean < b.Mean:
		return 1
	default:
		return 0
	}
}
