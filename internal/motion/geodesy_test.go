package motion

import (
	"math"
	"testing"
)

func TestBearing(t *testing.T) {
	origin := LatLon{Lat: 10, Lon: 20}
	tests := []struct {
		name string
		to   LatLon
		want float64
	}{
		{"same point", origin, 0},
		{"north", LatLon{Lat: 10.001, Lon: 20}, 0},
		{"east", LatLon{Lat: 10, Lon: 20.001}, 90},
		{"south", LatLon{Lat: 9.999, Lon: 20}, 180},
		{"west", LatLon{Lat: 10, Lon: 19.999}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Bearing() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	a := LatLon{Lat: 0, Lon: 0}
	b := LatLon{Lat: 0, Lon: 1}

	got := Distance(a, b)
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(got-want) > 1 {
		t.Errorf("Distance() = %.2f, want %.2f", got, want)
	}
	if Distance(a, a) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestLatLonValid(t *testing.T) {
	tests := []struct {
		p     LatLon
		valid bool
	}{
		{LatLon{0, 0}, true},
		{LatLon{90, 180}, true},
		{LatLon{-90.1, 0}, false},
		{LatLon{0, 180.5}, false},
		{LatLon{math.NaN(), 0}, false},
		{LatLon{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.valid {
			t.Errorf("Valid(%v) = %v, want %v", tt.p, got, tt.valid)
		}
	}
}

func TestVector2(t *testing.T) {
	if !(Vector2{}).IsZero() {
		t.Error("zero vector should report IsZero")
	}
	v := Vector2{X: 0.6, Y: -0.8}
	if math.Abs(v.Magnitude()-1) > 1e-12 {
		t.Errorf("Magnitude() = %v, want 1", v.Magnitude())
	}
}
