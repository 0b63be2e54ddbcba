package position

import (
	"errors"
	"time"

	"backend-nextquest/internal/shared/geo"
)

var (
	ErrInvalid     = errors.New("invalid position")
	ErrUnavailable = errors.New("position store unavailable")
)

// Fix is the last position a device reported.
type Fix struct {
	Point      geo.Point `json:"point"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

type Report struct {
	Lat       *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng       *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	AccuracyM float64  `json:"accuracy_m" validate:"gte=0"`
}
