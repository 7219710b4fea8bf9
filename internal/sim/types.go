package sim

import (
	"time"

	"github.com/san-kum/geostick/internal/motion"
)

type Config struct {
	// MaxSpeedFactor is the distance in degrees covered per moving tick at
	// full deflection. It also bounds the per-tick jitter.
	MaxSpeedFactor     float64       `yaml:"max_speed_factor"`
	MovingInterval     time.Duration `yaml:"moving_interval"`
	StationaryInterval time.Duration `yaml:"stationary_interval"`
	BaseAccuracy       float64       `yaml:"base_accuracy"`
	NetworkAccuracy    float64       `yaml:"network_accuracy"`
	// ResampleOdds is N in the 1-in-N chance that the gps accuracy is
	// redrawn on a tick.
	ResampleOdds int   `yaml:"resample_odds"`
	Seed         int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		MaxSpeedFactor:     1.5e-5,
		MovingInterval:     250 * time.Millisecond,
		StationaryInterval: time.Second,
		BaseAccuracy:       20,
		NetworkAccuracy:    1500,
		ResampleOdds:       10,
	}
}

// State is everything a session carries between ticks.
type State struct {
	Position     motion.LatLon
	LatSpeed     float64
	LonSpeed     float64
	LastAccuracy float64
	// Ticked is false until the first tick after a seed.
	Ticked bool
}

// Moving reports whether the next tick will integrate the position.
func (s State) Moving() bool { return s.LatSpeed != 0 || s.LonSpeed != 0 }

// Tick is the output of one transition.
type Tick struct {
	// Camera is set only on ticks that moved the position.
	Camera *motion.GeoSample
	Fixes  []motion.GeoSample
	Delay  time.Duration
	Moving bool
}

// GPS returns the fine fix of the tick.
func (t Tick) GPS() motion.GeoSample {
	for _, f := range t.Fixes {
		if f.Provider == motion.ProviderGPS {
			return f
		}
	}
	return motion.GeoSample{}
}

// Metric accumulates a value over the fixes of a session.
type Metric interface {
	Name() string
	Observe(fix motion.GeoSample, moving bool)
	Value() float64
	Reset()
}

// ErrorObserver is told about sink failures.
type ErrorObserver interface {
	OnSinkError(sink string, err error)
}
