package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/metrics"
	"github.com/san-kum/popcorn/internal/tonemap"
)

// Status is what a surface sees after every tick.
type Status struct {
	Frame        int
	MaxFrames    int
	Tick         int
	Ticks        int
	Samples      int
	FrameSamples int
	Hits         int
	Coeffs       dynamo.Coefficients
	OffsetY      float64
	Elapsed      time.Duration
	// TickTime is the duration of the tick just presented, excluding
	// the present itself.
	TickTime time.Duration
	Backend  string
}

// FrameStats summarise a completed frame.
type FrameStats struct {
	Frame   int
	Samples int
	Hits    int
	Mass    float64
	Calc    time.Duration
	Draw    time.Duration
	Export  time.Duration
	Coeffs  dynamo.Coefficients
	OffsetY float64
}

// Surface receives the preview and reports user cancellation. pixels is
// nil when the preview is disabled.
type Surface interface {
	Present(pixels *tonemap.PixelBuffer, st Status) error
	Cancelled() bool
}

// Exporter writes a finished radiance frame.
type Exporter interface {
	Export(frame int, f *tonemap.RadianceFrame) error
}

// Recorder receives per-frame statistics.
type Recorder interface {
	Record(s FrameStats) error
}

type nullSurface struct{}

func (nullSurface) Present(*tonemap.PixelBuffer, Status) error { return nil }
func (nullSurface) Cancelled() bool                            { return false }

type Engine struct {
	state    *Context
	surface  Surface
	exporter Exporter
	recorder Recorder
	timer    *metrics.TickTimer
	rate     *metrics.Throughput
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Engine)

// WithExporter enables radiance export after every frame.
func WithExporter(x Exporter) Option { return func(e *Engine) { e.exporter = x } }

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithTimer(t *metrics.TickTimer) Option { return func(e *Engine) { e.timer = t } }

func NewEngine(c *Context, s Surface, opts ...Option) *Engine {
	if s == nil {
		s = nullSurface{}
	}
	e := &Engine{
		state:   c,
		surface: s,
		timer:   metrics.NewTickTimer(256),
		rate:    &metrics.Throughput{},
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Context() *Context               { return e.state }
func (e *Engine) Timer() *metrics.TickTimer       { return e.timer }
func (e *Engine) Throughput() *metrics.Throughput { return e.rate }

// Metrics lists the run metrics in display order.
func (e *Engine) Metrics() []metrics.Metric {
	return []metrics.Metric{e.timer, e.rate}
}

// Run renders frames until the frame ceiling, a cancelled context or a
// surface quit. A user quit is not an error.
func (e *Engine) Run(ctx context.Context) error {
	s := e.state.Settings
	for _, m := range e.Metrics() {
		m.Reset()
	}
	e.log.Info("run starting",
		"resolution", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"workers", e.state.Pool.Size(),
		"backend", e.state.Pool.Backend().Name(),
		"frame_samples", s.FrameSamples,
		"ticks", s.TicksPerFrame,
		"start_frame", s.StartFrame,
		"max_frames", s.MaxFrames,
		"animated", !e.state.Animator.Static(),
		"export", e.exporter != nil,
	)
	for s.MaxFrames <= 0 || e.state.Counters.Frame < s.MaxFrames {
		if err := e.Frame(ctx); err != nil {
			if errors.Is(err, dynamo.ErrCanceled) {
				e.log.Info("run stopped", "frame", e.state.Counters.Frame, "tick", e.state.Counters.Tick)
				return nil
			}
			return err
		}
	}
	e.log.Info("run complete", "frames", e.state.Counters.Frame, "samples", e.state.Counters.Total)
	return nil
}

func (e *Engine) cancelled(ctx context.Context) bool {
	return ctx.Err() != nil || e.surface.Cancelled()
}

// Frame renders one complete frame. It returns an error wrapping
// dynamo.ErrCanceled when stopped between ticks.
func (e *Engine) Frame(ctx context.Context) error {
	st := e.state
	s := st.Settings
	c := &st.Counters

	st.Pool.Clear()
	st.Merged.Clear()
	c.beginFrame(e.now())

	it := st.Iterator()
	var calc, draw time.Duration

	for tick, n := range Partition(s.FrameSamples, s.TicksPerFrame) {
		if e.cancelled(ctx) {
			return fmt.Errorf("frame %d tick %d: %w", c.Frame, tick, dynamo.ErrCanceled)
		}

		t0 := e.now()
		st.Pool.Run(it, n)
		if err := st.Pool.Merge(st.Merged); err != nil {
			return err
		}
		t1 := e.now()

		c.Tick = tick + 1
		c.Samples += n
		c.Total += int64(n)

		var px *tonemap.PixelBuffer
		if s.Preview {
			tonemap.Display(st.Merged, st.Pixels, s.Intensify)
			px = st.Pixels
		}
		st := e.status()
		st.TickTime = e.now().Sub(t0)
		if err := e.surface.Present(px, st); err != nil {
			return fmt.Errorf("present frame %d tick %d: %w", c.Frame, tick, err)
		}
		t2 := e.now()

		e.timer.Observe(t1.Sub(t0), t2.Sub(t1))
		e.rate.Observe(n, t2.Sub(t0))
		calc += t1.Sub(t0)
		draw += t2.Sub(t1)
	}

	var exportDur time.Duration
	if e.exporter != nil {
		t0 := e.now()
		tonemap.Radiance(st.Merged, st.Radiance, s.Dampen)
		if err := e.exporter.Export(c.Frame, st.Radiance); err != nil {
			e.log.Error("export failed", "frame", c.Frame, "error", err)
		}
		exportDur = e.now().Sub(t0)
	}

	coeffs, offY := st.Animator.Snapshot()
	stats := FrameStats{
		Frame:   c.Frame,
		Samples: c.Samples,
		Hits:    st.Pool.Hits(),
		Mass:    st.Merged.Total(),
		Calc:    calc,
		Draw:    draw,
		Export:  exportDur,
		Coeffs:  coeffs,
		OffsetY: offY,
	}
	if e.recorder != nil {
		if err := e.recorder.Record(stats); err != nil {
			e.log.Warn("frame log write failed", "frame", c.Frame, "error", err)
		}
	}

	total := calc + draw
	e.log.Info("frame complete",
		"frame", c.Frame,
		"samples", c.Samples,
		"hits", stats.Hits,
		"elapsed", total.Round(time.Millisecond),
		"calc_pct", pct(calc, total),
		"draw_pct", pct(draw, total),
	)

	st.Animator.Step()
	c.endFrame(e.now())
	return nil
}

func (e *Engine) status() Status {
	st := e.state
	coeffs, offY := st.Animator.Snapshot()
	return Status{
		Frame:        st.Counters.Frame,
		MaxFrames:    st.Settings.MaxFrames,
		Tick:         st.Counters.Tick,
		Ticks:        st.Settings.TicksPerFrame,
		Samples:      st.Counters.Samples,
		FrameSamples: st.Settings.FrameSamples,
		Hits:         st.Pool.Hits(),
		Coeffs:       coeffs,
		OffsetY:      offY,
		Elapsed:      e.now().Sub(st.Counters.Start),
		Backend:      st.Pool.Backend().Name(),
	}
}

func pct(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(int(1000*float64(part)/float64(total))) / 10
}
