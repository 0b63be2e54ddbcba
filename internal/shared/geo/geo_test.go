package geo

import (
	"math"
	"strings"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceKmZero(t *testing.T) {
	p := Point{Lat: 42.3355, Lng: -71.1685}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := Point{Lat: 42.3355, Lng: -71.1685}
	b := Point{Lat: 40.7128, Lng: -74.0060}
	if math.Abs(DistanceKm(a, b)-DistanceKm(b, a)) > 1e-9 {
		t.Fatalf("expected symmetric distance")
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 90, Lng: -180}).Valid() {
		t.Fatalf("expected boundary point valid")
	}
	if (Point{Lat: 91, Lng: 0}).Valid() {
		t.Fatalf("expected latitude out of range")
	}
	if (Point{Lat: math.NaN(), Lng: 0}).Valid() {
		t.Fatalf("expected NaN invalid")
	}
}

func TestMapsURL(t *testing.T) {
	got := MapsURL(Point{Lat: 42.5, Lng: -71.25}, "Boston Common")
	if !strings.HasPrefix(got, "http://maps.apple.com/?") {
		t.Fatalf("unexpected prefix: %s", got)
	}
	if !strings.Contains(got, "daddr=42.5%2C-71.25") || !strings.Contains(got, "q=Boston+Common") {
		t.Fatalf("unexpected url: %s", got)
	}
}
