package sim

import (
	"context"
	"errors"
	"time"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/popcorn/internal/animate"
	"github.com/san-kum/popcorn/internal/compute"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/field"
)

var _ = g.Describe("NewContext", func() {
	g.It("rejects a tiny resolution", func() {
		s := smallSettings()
		s.Width = 1
		pool := NewPool(1, 1, s.Height, 1, compute.NewScalarBackend())
		g.DeferCleanup(pool.Close)
		_, err := NewContext(s, field.Zero{}, animate.New(dynamo.Coefficients{}, dynamo.Coefficients{}, 0, 0, 0), pool)
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})

	g.It("rejects pool buffers of the wrong size", func() {
		s := smallSettings()
		pool := NewPool(1, 10, 10, 1, compute.NewScalarBackend())
		g.DeferCleanup(pool.Close)
		_, err := NewContext(s, field.Zero{}, animate.New(dynamo.Coefficients{}, dynamo.Coefficients{}, 0, 0, 0), pool)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	g.It("rejects a missing field", func() {
		s := smallSettings()
		pool := NewPool(1, s.Width, s.Height, 1, compute.NewScalarBackend())
		g.DeferCleanup(pool.Close)
		_, err := NewContext(s, nil, animate.New(dynamo.Coefficients{}, dynamo.Coefficients{}, 0, 0, 0), pool)
		Expect(err).To(HaveOccurred())
	})
})

var _ = g.Describe("Engine", func() {
	var (
		ctx context.Context
		s   Settings
	)

	g.BeforeEach(func() {
		ctx = context.Background()
		s = smallSettings()
	})

	g.It("presents once per tick and stops at the frame ceiling", func() {
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		surf := &recordingSurface{}
		e := NewEngine(c, surf, WithLogger(testLogger()))

		Expect(e.Run(ctx)).To(Succeed())
		Expect(surf.statuses).To(HaveLen(s.MaxFrames * s.TicksPerFrame))
		Expect(c.Counters.Frame).To(Equal(s.MaxFrames))
		Expect(c.Counters.Total).To(Equal(int64(s.MaxFrames * s.FrameSamples)))
		Expect(e.Timer().Ticks()).To(Equal(s.MaxFrames * s.TicksPerFrame))

		last := surf.statuses[len(surf.statuses)-1]
		Expect(last.Tick).To(Equal(s.TicksPerFrame))
		Expect(last.Samples).To(Equal(s.FrameSamples))
		Expect(last.Backend).To(Equal(compute.Scalar))
	})

	g.It("grows the density monotonically within a frame", func() {
		s.MaxFrames = 1
		c := newTestContext(s, field.NewPopcorn(), nil, 3, compute.NewScalarBackend())
		surf := &recordingSurface{ctx: c}
		Expect(NewEngine(c, surf, WithLogger(testLogger())).Run(ctx)).To(Succeed())

		Expect(surf.masses).To(HaveLen(s.TicksPerFrame))
		for i := 1; i < len(surf.masses); i++ {
			Expect(surf.masses[i]).To(BeNumerically(">=", surf.masses[i-1]))
		}
	})

	g.It("clears the density between frames", func() {
		s.MaxFrames = 3
		c := newTestContext(s, field.Zero{}, nil, 2, compute.NewScalarBackend())
		rec := &statsRecorder{}
		Expect(NewEngine(c, nil, WithRecorder(rec), WithLogger(testLogger())).Run(ctx)).To(Succeed())

		Expect(rec.stats).To(HaveLen(3))
		ceiling := float64(s.FrameSamples * s.IterMax)
		for _, st := range rec.stats {
			Expect(st.Samples).To(Equal(s.FrameSamples))
			Expect(st.Mass).To(BeNumerically("<=", ceiling+1e-6))
			Expect(st.Mass).To(BeNumerically("~", float64(st.Hits), 1e-6))
		}
	})

	g.It("exports an all-zero frame for an empty sample budget", func() {
		s.FrameSamples = 0
		s.MaxFrames = 1
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		x := &captureExporter{}
		surf := &recordingSurface{}
		Expect(NewEngine(c, surf, WithExporter(x), WithLogger(testLogger())).Run(ctx)).To(Succeed())

		Expect(x.frames).To(Equal([]int{0}))
		Expect(x.totals[0]).To(BeZero())
		Expect(surf.statuses).To(HaveLen(s.TicksPerFrame))
	})

	g.It("keeps running when an export fails", func() {
		s.MaxFrames = 3
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		x := &captureExporter{fail: true}
		Expect(NewEngine(c, nil, WithExporter(x), WithLogger(testLogger())).Run(ctx)).To(Succeed())
		Expect(x.frames).To(Equal([]int{0, 1, 2}))
	})

	g.It("stops between ticks when the surface cancels", func() {
		s.MaxFrames = 0
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		surf := &recordingSurface{cancelAfter: 6}
		x := &captureExporter{}
		Expect(NewEngine(c, surf, WithExporter(x), WithLogger(testLogger())).Run(ctx)).To(Succeed())

		Expect(surf.statuses).To(HaveLen(6))
		// frame 0 finished after tick 4, frame 1 was abandoned
		Expect(x.frames).To(Equal([]int{0}))
		Expect(c.Counters.Frame).To(Equal(1))
		Expect(c.Counters.Tick).To(Equal(2))
	})

	g.It("reports cancellation from Frame", func() {
		c := newTestContext(s, field.NewPopcorn(), nil, 1, compute.NewScalarBackend())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := NewEngine(c, nil, WithLogger(testLogger())).Frame(cctx)
		Expect(err).To(MatchError(dynamo.ErrCanceled))
	})

	g.It("returns nil when the context is already cancelled", func() {
		c := newTestContext(s, field.NewPopcorn(), nil, 1, compute.NewScalarBackend())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(NewEngine(c, nil, WithLogger(testLogger())).Run(cctx)).To(Succeed())
		Expect(c.Counters.Frame).To(BeZero())
	})

	g.It("advances the animator only between frames", func() {
		s.MaxFrames = 3
		a := animate.New(dynamo.Coefficients{0, 0, 0, 0}, dynamo.Coefficients{1, 2, 3, 4}, 0.25, 0.5, 0.01)
		c := newTestContext(s, field.NewPopcorn(), a, 2, compute.NewScalarBackend())
		surf := &recordingSurface{}
		Expect(NewEngine(c, surf, WithLogger(testLogger())).Run(ctx)).To(Succeed())

		for i, st := range surf.statuses {
			frame := i / s.TicksPerFrame
			Expect(st.Frame).To(Equal(frame))
			Expect(st.Coeffs[0]).To(BeNumerically("~", 0.01*float64(frame), 1e-12))
			Expect(st.Coeffs[3]).To(BeNumerically("~", 0.04*float64(frame), 1e-12))
			Expect(st.OffsetY).To(BeNumerically("~", 0.25+0.005*float64(frame), 1e-12))
		}
		Expect(a.Frame).To(Equal(3))
	})

	g.It("resumes a sequence from a start frame", func() {
		s.StartFrame = 5
		s.MaxFrames = 7
		a := animate.New(dynamo.Coefficients{}, dynamo.Coefficients{1, 0, 0, 0}, 0, 0, 0.1)
		c := newTestContext(s, field.NewPopcorn(), a, 2, compute.NewScalarBackend())
		x := &captureExporter{}
		surf := &recordingSurface{}
		Expect(NewEngine(c, surf, WithExporter(x), WithLogger(testLogger())).Run(ctx)).To(Succeed())

		Expect(x.frames).To(Equal([]int{5, 6}))
		Expect(surf.statuses[0].Frame).To(Equal(5))
		Expect(surf.statuses[0].Coeffs[0]).To(BeNumerically("~", 0.5, 1e-12))
		Expect(a.Frame).To(Equal(7))
	})

	g.It("rejects a negative start frame", func() {
		s.StartFrame = -1
		pool := NewPool(1, s.Width, s.Height, 1, compute.NewScalarBackend())
		g.DeferCleanup(pool.Close)
		_, err := NewContext(s, field.Zero{}, animate.New(dynamo.Coefficients{}, dynamo.Coefficients{}, 0, 0, 0), pool)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	g.It("reports tick times and resets its metrics per run", func() {
		s.MaxFrames = 1
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		surf := &recordingSurface{}
		e := NewEngine(c, surf, WithLogger(testLogger()))
		e.Timer().Observe(time.Hour, 0)

		Expect(e.Run(ctx)).To(Succeed())
		Expect(e.Timer().Ticks()).To(Equal(s.TicksPerFrame))
		Expect(e.Metrics()).To(HaveLen(2))
		for _, st := range surf.statuses {
			Expect(st.TickTime).To(BeNumerically(">=", 0))
		}
	})

	g.It("skips the preview tone map when disabled", func() {
		s.Preview = false
		s.MaxFrames = 1
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		surf := &recordingSurface{}
		Expect(NewEngine(c, surf, WithLogger(testLogger())).Run(ctx)).To(Succeed())
		Expect(surf.nilPixels).To(Equal(s.TicksPerFrame))
		for _, p := range c.Pixels.Pix {
			Expect(p.A).To(BeZero())
		}
	})

	g.It("fills the preview when enabled", func() {
		s.MaxFrames = 1
		s.FrameSamples = 4000
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewBatchBackend())
		Expect(NewEngine(c, nil, WithLogger(testLogger())).Run(ctx)).To(Succeed())

		lit := 0
		for _, p := range c.Pixels.Pix {
			Expect(p.A).To(Equal(uint8(255)))
			if p.R > 0 {
				lit++
			}
		}
		Expect(lit).To(BeNumerically(">", 0))
	})

	g.It("records throughput", func() {
		s.MaxFrames = 1
		c := newTestContext(s, field.NewPopcorn(), nil, 2, compute.NewScalarBackend())
		e := NewEngine(c, nil, WithLogger(testLogger()))
		Expect(e.Run(ctx)).To(Succeed())
		Expect(e.Throughput().Value()).To(BeNumerically(">=", 0))
	})
})
