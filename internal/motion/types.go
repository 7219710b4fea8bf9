package motion

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Provider names used for mock fixes.
const (
	ProviderNetwork = "network"
	ProviderGPS     = "gps"
)

// Vector2 is a normalized joystick displacement. Both components are in
// [-1, 1]; Y grows downwards as on screen.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector2) IsZero() bool { return v.X == 0 && v.Y == 0 }

func (v Vector2) Magnitude() float64 { return math.Hypot(v.X, v.Y) }

type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the coordinate is finite and inside the usual
// latitude/longitude ranges.
func (p LatLon) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p LatLon) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// GeoSample is one emitted location fix. It is immutable once emitted.
type GeoSample struct {
	Provider  string    `json:"provider"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Bearing   float64   `json:"bearing"`
	Accuracy  float64   `json:"accuracy"`
	Time      time.Time `json:"time"`
	// Jump is set on the first camera sample of a session; consumers move
	// there directly instead of animating.
	Jump bool `json:"jump,omitempty"`
}

func (s GeoSample) Position() LatLon {
	return LatLon{Lat: s.Latitude, Lon: s.Longitude}
}

// Sink receives emitted samples.
type Sink interface {
	Push(ctx context.Context, s GeoSample) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, s GeoSample) error

func (f SinkFunc) Push(ctx context.Context, s GeoSample) error { return f(ctx, s) }

// Persister stores the final position of a session.
type Persister interface {
	SaveLastKnown(ctx context.Context, p LatLon) error
}

// Observer is notified once per tick with the gps fix and whether the
// position moved on that tick.
type Observer interface {
	OnTick(fix GeoSample, moving bool)
}
