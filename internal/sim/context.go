package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/popcorn/internal/animate"
	"github.com/san-kum/popcorn/internal/density"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/tonemap"
)

// Settings are the fixed parameters of a run.
type Settings struct {
	Width, Height int
	Window        dynamo.Window
	FrameSamples  int
	TicksPerFrame int
	IterMax       int
	Delta         float64
	// StartFrame resumes a sequence: the animator is advanced and frame
	// numbering starts there. MaxFrames stays an absolute index.
	StartFrame int
	MaxFrames  int
	Intensify  float64
	Dampen     float64
	// Preview enables the display tone map on every tick.
	Preview bool
}

// Counters track progress through the run.
type Counters struct {
	Frame   int
	Tick    int
	Samples int
	Total   int64
	Start   time.Time
	Elapsed time.Duration
}

func (c *Counters) beginFrame(now time.Time) {
	c.Tick = 0
	c.Samples = 0
	c.Start = now
	c.Elapsed = 0
}

func (c *Counters) endFrame(now time.Time) {
	c.Elapsed = now.Sub(c.Start)
	c.Frame++
}

// Context owns every piece of mutable simulation state. Workers only see
// the private buffers handed to them by the pool and an Iterator copy.
type Context struct {
	Settings Settings
	Field    dynamo.Field
	Proj     density.Projector
	Animator *animate.Animator
	Pool     *Pool
	Merged   *density.Buffer
	Pixels   *tonemap.PixelBuffer
	Radiance *tonemap.RadianceFrame
	Counters Counters
}

// NewContext allocates the merged buffer and output frames once for the
// whole run.
func NewContext(s Settings, f dynamo.Field, a *animate.Animator, pool *Pool) (*Context, error) {
	if s.Width < 2 || s.Height < 2 {
		return nil, &dynamo.ConfigError{Field: "screen", Reason: fmt.Sprintf("resolution %dx%d too small", s.Width, s.Height)}
	}
	if f == nil {
		return nil, &dynamo.ConfigError{Field: "field", Reason: "no velocity field"}
	}
	for _, b := range pool.Buffers() {
		if b.Width != s.Width || b.Height != s.Height {
			return nil, &dynamo.ConfigError{Field: "screen", Reason: "pool buffers do not match resolution"}
		}
	}
	if s.TicksPerFrame < 1 {
		s.TicksPerFrame = 1
	}
	if s.StartFrame < 0 {
		return nil, &dynamo.ConfigError{Field: "animation.start_frame", Reason: "must not be negative"}
	}
	if n := s.StartFrame - a.Frame; n > 0 {
		a.Steps(n)
	}
	return &Context{
		Settings: s,
		Field:    f,
		Proj:     density.NewProjector(s.Window, s.Width, s.Height),
		Animator: a,
		Pool:     pool,
		Merged:   density.NewBuffer(s.Width, s.Height),
		Pixels:   tonemap.NewPixelBuffer(s.Width, s.Height),
		Radiance: tonemap.NewRadianceFrame(s.Width, s.Height),
		Counters: Counters{Frame: s.StartFrame},
	}, nil
}

// Iterator builds the read-only trajectory walker for the current frame.
func (c *Context) Iterator() *Iterator {
	coeffs, offY := c.Animator.Snapshot()
	w := c.Proj.Window()
	return &Iterator{
		Field:   c.Field,
		Coeffs:  coeffs,
		Proj:    c.Proj.WithOffset(w.OffsetX, offY),
		IterMax: c.Settings.IterMax,
		Delta:   c.Settings.Delta,
	}
}
