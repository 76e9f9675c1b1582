package config

import "sort"

// Presets are named configurations. Each is applied on top of
// DefaultConfig by Preset.
var Presets = map[string]func(*Config){
	// 1000 trajectories per tick, no frame ceiling
	"classic": func(c *Config) {
		c.Sampling.FrameSamples = 1000 * DefaultTicksPerFrame
		c.Animation.MaxFrames = 0
	},
	"drift": func(c *Config) {
		c.Animation.Rates = [4]float64{0.0011, 0.0013, 0.0017, 0.0019}
		c.Animation.OffsetRate = -0.0001
		c.Sampling.FrameSamples = 2000000
		c.Sampling.TicksPerFrame = 50
	},
	"wide": func(c *Config) {
		c.Screen.Width, c.Screen.Height = 1280, 960
		c.Domain.Width, c.Domain.Height = 3, 2.25
		c.Domain.OffsetY = 0.5
		c.Sampling.FrameSamples = 800000
	},
	"fast": func(c *Config) {
		c.Field.Name = "popcorn_fast"
		c.Compute.Backend = "batch4"
	},
}

// Preset returns DefaultConfig with the named preset applied, or nil.
func Preset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
