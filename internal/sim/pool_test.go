package sim

import (
	"math"
	"math/rand"
	"runtime"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/popcorn/internal/compute"
	"github.com/san-kum/popcorn/internal/density"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/field"
)

var _ = g.Describe("Partition", func() {
	g.DescribeTable("splits work into near-equal parts",
		func(n, w int, want []int) {
			Expect(Partition(n, w)).To(Equal(want))
		},
		g.Entry("even", 8, 4, []int{2, 2, 2, 2}),
		g.Entry("remainder goes first", 10, 4, []int{3, 3, 2, 2}),
		g.Entry("fewer items than workers", 2, 4, []int{1, 1, 0, 0}),
		g.Entry("nothing to do", 0, 3, []int{0, 0, 0}),
		g.Entry("non-positive worker count", 5, 0, []int{5}),
	)

	g.It("always sums to n", func() {
		for n := 0; n < 50; n++ {
			for w := 1; w < 9; w++ {
				sum := 0
				for _, p := range Partition(n, w) {
					sum += p
				}
				Expect(sum).To(Equal(n))
			}
		}
	})
})

var _ = g.Describe("WorkerCount", func() {
	g.DescribeTable("bounds the request by hardware and ceiling",
		func(requested, ceiling, cpus, want int) {
			Expect(workerCount(requested, ceiling, cpus)).To(Equal(want))
		},
		g.Entry("explicit request within both", 3, 64, 8, 3),
		g.Entry("request above the CPU count", 500, 64, 8, 8),
		g.Entry("ceiling below the CPU count", 500, 4, 16, 4),
		g.Entry("one per CPU when unset", 0, 64, 12, 12),
		g.Entry("default ceiling", 0, 0, 128, DefaultMaxWorkers),
		g.Entry("never below one", 0, 64, 0, 1),
	)

	g.It("never exceeds the machine", func() {
		Expect(WorkerCount(500, 64)).To(BeNumerically("<=", runtime.NumCPU()))
	})
	g.It("uses the CPU count when unset", func() {
		n := WorkerCount(0, 0)
		Expect(n).To(BeNumerically(">=", 1))
		Expect(n).To(BeNumerically("<=", DefaultMaxWorkers))
	})
})

var _ = g.Describe("Iterator", func() {
	var it *Iterator

	g.BeforeEach(func() {
		it = &Iterator{
			Field:   field.Zero{},
			Proj:    density.NewProjector(testWindow, 8, 6),
			IterMax: 10,
			Delta:   1,
		}
	})

	g.It("yields IterMax positions from a start point", func() {
		n := 0
		for p := range it.From(dynamo.Vec2{X: 0.5, Y: -0.5}) {
			Expect(p).To(Equal(dynamo.Vec2{X: 0.5, Y: -0.5}))
			n++
		}
		Expect(n).To(Equal(10))
	})

	g.It("deposits all mass of a centred still trajectory on one cell", func() {
		buf := density.NewBuffer(8, 6)
		for p := range it.From(dynamo.Vec2{}) {
			Expect(buf.Insert(it.Proj, p)).To(BeTrue())
		}
		Expect(buf.At(4, 3)).To(BeNumerically("~", 10, 1e-12))
		Expect(buf.Total()).To(BeNumerically("~", 10, 1e-12))
	})

	g.It("draws seeds inside the window", func() {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			p := it.Seed(rng)
			Expect(math.Abs(p.X)).To(BeNumerically("<=", testWindow.Width))
			Expect(math.Abs(p.Y)).To(BeNumerically("<=", testWindow.Height))
		}
	})

	g.It("has a single-use sequence", func() {
		seq := it.Seq(rand.New(rand.NewSource(1)))
		first, second := 0, 0
		for range seq {
			first++
		}
		for range seq {
			second++
		}
		Expect(first).To(Equal(10))
		Expect(second).To(Equal(0))
	})

	g.It("stops early when the consumer breaks", func() {
		n := 0
		for range it.From(dynamo.Vec2{}) {
			n++
			if n == 3 {
				break
			}
		}
		Expect(n).To(Equal(3))
	})

	g.It("traces the same points its sequence yields", func() {
		it.Field = field.NewPopcorn()
		it.Coeffs = dynamo.Coefficients{0.1, 0.2, 0.3, 0.4}

		traced := density.NewBuffer(8, 6)
		hits := it.Trace(rand.New(rand.NewSource(9)), traced)

		walked := density.NewBuffer(8, 6)
		inserted := 0
		for p := range it.Seq(rand.New(rand.NewSource(9))) {
			if walked.Insert(it.Proj, p) {
				inserted++
			}
		}
		Expect(hits).To(Equal(inserted))
		Expect(traced.Cells).To(Equal(walked.Cells))
	})

	g.It("counts hits like the inserts it makes", func() {
		it.Field = field.NewPopcorn()
		it.Coeffs = dynamo.Coefficients{0.1, 0.2, 0.3, 0.4}
		buf := density.NewBuffer(8, 6)
		hits := it.Trace(rand.New(rand.NewSource(3)), buf)
		Expect(hits).To(BeNumerically("<=", 10))
		Expect(buf.Total()).To(BeNumerically("~", float64(hits), 1e-9))
	})
})

var _ = g.Describe("Pool", func() {
	const w, h = 32, 24

	newIterator := func() *Iterator {
		return &Iterator{
			Field:   field.NewPopcorn(),
			Coeffs:  dynamo.Coefficients{0.1, 0.2, 0.3, 0.4},
			Proj:    density.NewProjector(testWindow, w, h),
			IterMax: 10,
			Delta:   1,
		}
	}

	newPool := func(n int, seed int64, b compute.Backend) *Pool {
		p := NewPool(n, w, h, seed, b)
		g.DeferCleanup(p.Close)
		return p
	}

	g.It("merges exactly the sum of the private buffers", func() {
		p := newPool(4, 1, compute.NewScalarBackend())
		p.Run(newIterator(), 1000)

		merged := density.NewBuffer(w, h)
		Expect(p.Merge(merged)).To(Succeed())

		want := density.NewBuffer(w, h)
		for _, b := range p.Buffers() {
			Expect(want.Add(b)).To(Succeed())
		}
		Expect(merged.Cells).To(Equal(want.Cells))
		Expect(merged.Total()).To(BeNumerically("~", float64(p.Hits()), 1e-6))
	})

	g.It("is deterministic for a fixed seed and worker count", func() {
		a := newPool(3, 42, compute.NewScalarBackend())
		b := newPool(3, 42, compute.NewScalarBackend())
		it := newIterator()
		for i := 0; i < 3; i++ {
			a.Run(it, 500)
			b.Run(it, 500)
		}
		ma, mb := density.NewBuffer(w, h), density.NewBuffer(w, h)
		Expect(a.Merge(ma)).To(Succeed())
		Expect(b.Merge(mb)).To(Succeed())
		Expect(ma.Cells).To(Equal(mb.Cells))
	})

	g.It("reuses the barrier and keeps accumulating until cleared", func() {
		p := newPool(2, 1, compute.NewScalarBackend())
		it := newIterator()
		prev := 0
		for i := 0; i < 5; i++ {
			p.Run(it, 100)
			Expect(p.Hits()).To(BeNumerically(">=", prev))
			prev = p.Hits()
		}

		p.Clear()
		Expect(p.Hits()).To(Equal(0))
		for _, b := range p.Buffers() {
			Expect(b.Total()).To(BeZero())
		}
	})

	g.It("does nothing for an empty run", func() {
		p := newPool(4, 1, compute.NewScalarBackend())
		p.Run(newIterator(), 0)
		Expect(p.Hits()).To(BeZero())
	})

	g.It("handles fewer samples than workers", func() {
		p := newPool(8, 1, compute.NewScalarBackend())
		p.Run(newIterator(), 3)
		merged := density.NewBuffer(w, h)
		Expect(p.Merge(merged)).To(Succeed())
		Expect(merged.Total()).To(BeNumerically("<=", 30+1e-9))
	})

	g.It("gives statistically equivalent images on both backends", func() {
		const n = 20000
		it := newIterator()

		scalar := newPool(4, 11, compute.NewScalarBackend())
		batch := newPool(4, 99, compute.NewBatchBackend())
		scalar.Run(it, n)
		batch.Run(it, n)

		ms, mb := density.NewBuffer(w, h), density.NewBuffer(w, h)
		Expect(scalar.Merge(ms)).To(Succeed())
		Expect(batch.Merge(mb)).To(Succeed())

		ts, tb := ms.Total(), mb.Total()
		Expect(ts).To(BeNumerically(">", 0))
		Expect(math.Abs(ts-tb) / ts).To(BeNumerically("<", 0.03))

		sx, sy := ms.Centroid()
		bx, by := mb.Centroid()
		Expect(sx).To(BeNumerically("~", bx, 0.5))
		Expect(sy).To(BeNumerically("~", by, 0.5))
	})

	g.It("gives equivalent images for any worker count", func() {
		const n = 20000
		it := newIterator()

		var ref *density.Buffer
		for _, workers := range []int{1, 3, 8} {
			p := newPool(workers, int64(100*workers), compute.NewScalarBackend())
			p.Run(it, n)
			merged := density.NewBuffer(w, h)
			Expect(p.Merge(merged)).To(Succeed())
			Expect(merged.Width).To(Equal(w))
			Expect(merged.Height).To(Equal(h))
			Expect(merged.Cells).To(HaveLen(w * h))

			if ref == nil {
				ref = merged
				continue
			}
			Expect(merged.SameShape(ref)).To(BeTrue())
			tr, tm := ref.Total(), merged.Total()
			Expect(tr).To(BeNumerically(">", 0))
			Expect(math.Abs(tr-tm)/tr).To(BeNumerically("<", 0.03), "workers=%d", workers)

			rx, ry := ref.Centroid()
			mx, my := merged.Centroid()
			Expect(mx).To(BeNumerically("~", rx, 0.5), "workers=%d", workers)
			Expect(my).To(BeNumerically("~", ry, 0.5), "workers=%d", workers)
		}
	})

	g.It("can be closed twice", func() {
		p := NewPool(2, w, h, 1, compute.NewScalarBackend())
		p.Close()
		Expect(p.Close).NotTo(Panic())
	})
})
