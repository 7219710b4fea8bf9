package experiment

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/geostick/internal/config"
)

// FromPreset builds an experiment config from a named preset, or from a
// yaml script when name ends in .yaml or .yml. Simulator and joystick
// settings come from cfg.
func FromPreset(name string, cfg *config.Config) (Config, error) {
	var p *config.Preset
	switch ext := filepath.Ext(name); ext {
	case ".yaml", ".yml":
		loaded, err := config.LoadPreset(name)
		if err != nil {
			return Config{}, err
		}
		p = loaded
		name = strings.TrimSuffix(filepath.Base(name), ext)
	default:
		p = config.GetPreset(name)
	}
	if p == nil {
		return Config{}, fmt.Errorf("unknown preset: %s", name)
	}
	return Config{
		Name:     name,
		Start:    p.Start,
		Duration: p.Duration,
		Script:   p.Script,
		Sim:      cfg.Sim,
		Pad:      cfg.Joystick,
		Seed:     cfg.Sim.Seed,
	}, nil
}
