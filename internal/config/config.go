package config

import (
	"fmt"
	"os"

	"github.com/san-kum/popcorn/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultInternWidth   = 2.0
	DefaultInternHeight  = 1.5
	DefaultOffsetY       = 0.25
	DefaultIterMax       = 10
	DefaultDelta         = 1.0
	DefaultFrameSamples  = 200000
	DefaultTicksPerFrame = 200
	DefaultMaxWorkers    = 64
	DefaultMaxFrames     = 2048
	DefaultIntensify     = 4.0
	DefaultDampen        = 40.0
)

type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Field     FieldConfig     `yaml:"field"`
	Animation AnimationConfig `yaml:"animation"`
	Tonemap   TonemapConfig   `yaml:"tonemap"`
	Compute   ComputeConfig   `yaml:"compute"`
	Export    ExportConfig    `yaml:"export"`
}

type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
}

// DomainConfig is the window of the plane that is rasterised. Width and
// Height are half-extents.
type DomainConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

type SamplingConfig struct {
	FrameSamples  int     `yaml:"frame_samples"`
	TicksPerFrame int     `yaml:"ticks_per_frame"`
	IterMax       int     `yaml:"iter_max"`
	Delta         float64 `yaml:"delta"`
	Workers       int     `yaml:"workers"`     // 0 = one per CPU
	MaxWorkers    int     `yaml:"max_workers"` // ceiling applied after resolving Workers
	Seed          int64   `yaml:"seed"`        // 0 = time based
}

type FieldConfig struct {
	Name         string             `yaml:"name"`
	Coefficients [4]float64         `yaml:"coefficients,flow"`
	Params       map[string]float64 `yaml:"params,omitempty"`
}

type AnimationConfig struct {
	Rates      [4]float64 `yaml:"rates,flow"`
	OffsetRate float64    `yaml:"offset_rate"`
	Dt         float64    `yaml:"dt"`
	StartFrame int        `yaml:"start_frame"`
	MaxFrames  int        `yaml:"max_frames"` // 0 = unlimited
}

type TonemapConfig struct {
	Intensify float64 `yaml:"intensify"`
	Dampen    float64 `yaml:"dampen"`
}

type ComputeConfig struct {
	Backend string `yaml:"backend"`
}

type ExportConfig struct {
	Stub string `yaml:"stub"` // empty disables .hdr export
	Log  string `yaml:"log"`  // per-frame CSV path, empty disables
}

func DefaultConfig() *Config {
	return &Config{
		Screen: ScreenConfig{
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			Title:     "popcorn",
			TargetFPS: 0,
		},
		Domain: DomainConfig{
			Width:   DefaultInternWidth,
			Height:  DefaultInternHeight,
			OffsetY: DefaultOffsetY,
		},
		Sampling: SamplingConfig{
			FrameSamples:  DefaultFrameSamples,
			TicksPerFrame: DefaultTicksPerFrame,
			IterMax:       DefaultIterMax,
			Delta:         DefaultDelta,
			MaxWorkers:    DefaultMaxWorkers,
		},
		Field: FieldConfig{
			Name:         "popcorn",
			Coefficients: [4]float64{0, 1, 2, 3},
		},
		Animation: AnimationConfig{
			Dt:        1,
			MaxFrames: DefaultMaxFrames,
		},
		Tonemap: TonemapConfig{
			Intensify: DefaultIntensify,
			Dampen:    DefaultDampen,
		},
		Compute: ComputeConfig{Backend: "auto"},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the file at path on cfg. Keys absent from the file
// keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Screen.Width < 2 || c.Screen.Height < 2:
		return &dynamo.ConfigError{Field: "screen", Reason: fmt.Sprintf("resolution %dx%d too small", c.Screen.Width, c.Screen.Height)}
	case c.Domain.Width <= 0 || c.Domain.Height <= 0:
		return &dynamo.ConfigError{Field: "domain", Reason: "extents must be positive"}
	case c.Sampling.FrameSamples < 0:
		return &dynamo.ConfigError{Field: "sampling.frame_samples", Reason: "must not be negative"}
	case c.Sampling.TicksPerFrame < 1:
		return &dynamo.ConfigError{Field: "sampling.ticks_per_frame", Reason: "must be at least 1"}
	case c.Sampling.IterMax < 1:
		return &dynamo.ConfigError{Field: "sampling.iter_max", Reason: "must be at least 1"}
	case c.Sampling.Delta <= 0:
		return &dynamo.ConfigError{Field: "sampling.delta", Reason: "must be positive"}
	case c.Sampling.Workers < 0 || c.Sampling.MaxWorkers < 0:
		return &dynamo.ConfigError{Field: "sampling.workers", Reason: "must not be negative"}
	case c.Animation.MaxFrames < 0:
		return &dynamo.ConfigError{Field: "animation.max_frames", Reason: "must not be negative"}
	case c.Animation.StartFrame < 0:
		return &dynamo.ConfigError{Field: "animation.start_frame", Reason: "must not be negative"}
	case c.Tonemap.Intensify <= 0:
		return &dynamo.ConfigError{Field: "tonemap.intensify", Reason: "must be positive"}
	case c.Tonemap.Dampen <= 0:
		return &dynamo.ConfigError{Field: "tonemap.dampen", Reason: "must be positive"}
	}
	return nil
}

// Window returns the domain window.
func (c *Config) Window() dynamo.Window {
	return dynamo.Window{
		Width:   c.Domain.Width,
		Height:  c.Domain.Height,
		OffsetX: c.Domain.OffsetX,
		OffsetY: c.Domain.OffsetY,
	}
}

func (c *Config) Coefficients() dynamo.Coefficients {
	return dynamo.Coefficients(c.Field.Coefficients)
}

func (c *Config) Rates() dynamo.Coefficients {
	return dynamo.Coefficients(c.Animation.Rates)
}

// ExportEnabled reports whether radiance frames should be written.
func (c *Config) ExportEnabled() bool {
	return c.Export.Stub != ""
}
