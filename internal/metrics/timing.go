package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Metric is a named scalar that can be reset between runs.
type Metric interface {
	Name() string
	Value() float64
	Reset()
}

// TickTimer splits tick time into calculation and drawing and keeps a
// rolling window of total tick durations.
type TickTimer struct {
	window    []float64
	next      int
	count     int
	calcTotal time.Duration
	drawTotal time.Duration
	ticks     int
}

// NewTickTimer keeps the last size ticks.
func NewTickTimer(size int) *TickTimer {
	if size < 1 {
		size = 60
	}
	return &TickTimer{window: make([]float64, size)}
}

func (t *TickTimer) Name() string { return "tick_ms" }

// Observe records one tick.
func (t *TickTimer) Observe(calc, draw time.Duration) {
	t.calcTotal += calc
	t.drawTotal += draw
	t.ticks++

	t.window[t.next] = float64(calc+draw) / float64(time.Millisecond)
	t.next = (t.next + 1) % len(t.window)
	if t.count < len(t.window) {
		t.count++
	}
}

// Value is the mean tick time in milliseconds over the window.
func (t *TickTimer) Value() float64 {
	mean, _ := t.MeanStdDev()
	return mean
}

// MeanStdDev returns the windowed mean and standard deviation in ms.
func (t *TickTimer) MeanStdDev() (mean, std float64) {
	s := t.Samples()
	switch len(s) {
	case 0:
		return 0, 0
	case 1:
		return s[0], 0
	}
	return stat.MeanStdDev(s, nil)
}

// Samples returns the windowed tick times in ms, oldest first.
func (t *TickTimer) Samples() []float64 {
	out := make([]float64, 0, t.count)
	start := t.next - t.count
	if start < 0 {
		start += len(t.window)
	}
	for i := 0; i < t.count; i++ {
		out = append(out, t.window[(start+i)%len(t.window)])
	}
	return out
}

// CalcPct is the share of all observed time spent sampling.
func (t *TickTimer) CalcPct() float64 {
	total := t.calcTotal + t.drawTotal
	if total == 0 {
		return 0
	}
	return 100 * float64(t.calcTotal) / float64(total)
}

// DrawPct is the share of all observed time spent mapping and presenting.
func (t *TickTimer) DrawPct() float64 {
	total := t.calcTotal + t.drawTotal
	if total == 0 {
		return 0
	}
	return 100 * float64(t.drawTotal) / float64(total)
}

func (t *TickTimer) Ticks() int { return t.ticks }

func (t *TickTimer) Reset() {
	clear(t.window)
	t.next, t.count, t.ticks = 0, 0, 0
	t.calcTotal, t.drawTotal = 0, 0
}

// Throughput measures trajectories per second.
type Throughput struct {
	samples int64
	elapsed time.Duration
}

func (r *Throughput) Name() string { return "samples_per_sec" }

func (r *Throughput) Observe(n int, d time.Duration) {
	r.samples += int64(n)
	r.elapsed += d
}

func (r *Throughput) Value() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.samples) / r.elapsed.Seconds()
}

func (r *Throughput) Reset() {
	r.samples = 0
	r.elapsed = 0
}
