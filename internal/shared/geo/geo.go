// Package geo holds coordinate helpers shared by spots, positions and ranking.
package geo

import (
	"fmt"
	"math"
	"net/url"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p lies inside the latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceKm is HaversineKm over points.
func DistanceKm(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// MapsURL builds an Apple Maps directions link to p labelled with name.
func MapsURL(p Point, name string) string {
	q := url.Values{}
	q.Set("daddr", fmt.Sprintf("%g,%g", p.Lat, p.Lng))
	if name != "" {
		q.Set("q", name)
	}
	return "http://maps.apple.com/?" + q.Encode()
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
