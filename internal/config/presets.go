package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/geostick/internal/motion"
)

// Gesture is one scripted touch: press at (X, Y), hold, release, then
// wait. X and Y are offsets from the pad center as a fraction of the
// travel radius, so (1, 0) is full right and (0, -1) full up.
type Gesture struct {
	X     float64       `yaml:"x"`
	Y     float64       `yaml:"y"`
	Hold  time.Duration `yaml:"hold"`
	Pause time.Duration `yaml:"pause"`
}

type Preset struct {
	Description string        `yaml:"description"`
	Start       motion.LatLon `yaml:"start"`
	Duration    time.Duration `yaml:"duration"`
	Script      []Gesture     `yaml:"script"`
}

var (
	mountainView = motion.LatLon{Lat: 37.4220, Lon: -122.0841}
	westminster  = motion.LatLon{Lat: 51.5007, Lon: -0.1246}
	shibuya      = motion.LatLon{Lat: 35.6595, Lon: 139.7005}
)

var Presets = map[string]*Preset{
	"idle": {
		Description: "stationary device, jitter only",
		Start:       mountainView,
		Duration:    30 * time.Second,
	},
	"walk-east": {
		Description: "half deflection to the east",
		Start:       mountainView,
		Duration:    30 * time.Second,
		Script: []Gesture{
			{X: 0.5, Y: 0, Hold: 20 * time.Second},
		},
	},
	"square": {
		Description: "full deflection north, east, south, west",
		Start:       westminster,
		Duration:    45 * time.Second,
		Script: []Gesture{
			{X: 0, Y: -1, Hold: 8 * time.Second, Pause: 2 * time.Second},
			{X: 1, Y: 0, Hold: 8 * time.Second, Pause: 2 * time.Second},
			{X: 0, Y: 1, Hold: 8 * time.Second, Pause: 2 * time.Second},
			{X: -1, Y: 0, Hold: 8 * time.Second, Pause: 2 * time.Second},
		},
	},
	"compass": {
		Description: "short pushes in all eight snapped directions",
		Start:       shibuya,
		Duration:    50 * time.Second,
		Script: []Gesture{
			{X: 1, Y: 0, Hold: 4 * time.Second, Pause: time.Second},
			{X: 0.7, Y: -0.7, Hold: 4 * time.Second, Pause: time.Second},
			{X: 0, Y: -1, Hold: 4 * time.Second, Pause: time.Second},
			{X: -0.7, Y: -0.7, Hold: 4 * time.Second, Pause: time.Second},
			{X: -1, Y: 0, Hold: 4 * time.Second, Pause: time.Second},
			{X: -0.7, Y: 0.7, Hold: 4 * time.Second, Pause: time.Second},
			{X: 0, Y: 1, Hold: 4 * time.Second, Pause: time.Second},
			{X: 0.7, Y: 0.7, Hold: 4 * time.Second, Pause: time.Second},
		},
	},
	"drift": {
		Description: "slightly off-axis push that snaps to north-east",
		Start:       shibuya,
		Duration:    20 * time.Second,
		Script: []Gesture{
			{X: 0.6, Y: -0.4, Hold: 15 * time.Second},
		},
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPreset reads a gesture script from a yaml file laid out like a
// built-in preset.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("%s: duration must be positive", path)
	}
	if !p.Start.Valid() {
		return nil, fmt.Errorf("%s: start: %w", path, motion.ErrInvalidSeed)
	}
	return &p, nil
}
