package sim

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/san-kum/popcorn/internal/compute"
	"github.com/san-kum/popcorn/internal/density"
)

// DefaultMaxWorkers caps the pool when no explicit ceiling is configured.
const DefaultMaxWorkers = 64

// Partition splits n into w near-equal non-negative parts; the first n%w
// parts get one extra.
func Partition(n, w int) []int {
	if w < 1 {
		w = 1
	}
	parts := make([]int, w)
	base, rem := n/w, n%w
	for i := range parts {
		parts[i] = base
		if i < rem {
			parts[i]++
		}
	}
	return parts
}

// WorkerCount resolves a requested count against the hardware and a cap.
// requested <= 0 means one worker per CPU; larger requests are clamped to
// the CPU count.
func WorkerCount(requested, maxWorkers int) int {
	return workerCount(requested, maxWorkers, runtime.NumCPU())
}

func workerCount(requested, maxWorkers, cpus int) int {
	n := requested
	if n <= 0 || n > cpus {
		n = cpus
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return max(1, min(n, maxWorkers))
}

type workChunk struct {
	it *Iterator
	n  int
}

type worker struct {
	buf  *density.Buffer
	rng  *rand.Rand
	work chan workChunk
	hits int
}

// Pool is a set of persistent sampling workers. Each worker owns a private
// density buffer and random stream; Run is a fork-join barrier that may be
// called any number of times from a single goroutine.
type Pool struct {
	workers []*worker
	bufs    []*density.Buffer
	backend compute.Backend
	done    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewPool starts n workers with buffers of width x height. Worker i
// draws from a stream seeded with seed+i.
func NewPool(n, width, height int, seed int64, backend compute.Backend) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		workers: make([]*worker, n),
		bufs:    make([]*density.Buffer, n),
		backend: backend,
		done:    make(chan struct{}, n),
		stop:    make(chan struct{}),
	}
	for i := range p.workers {
		p.workers[i] = &worker{
			buf:  density.NewBuffer(width, height),
			rng:  rand.New(rand.NewSource(seed + int64(i))),
			work: make(chan workChunk, 1),
		}
		p.bufs[i] = p.workers[i].buf
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.running = true
	for _, w := range p.workers {
		p.wg.Add(1)
		go p.run(w)
	}
}

func (p *Pool) run(w *worker) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case c := <-w.work:
			w.hits += p.backend.Sample(c.it, w.rng, c.n, w.buf)
			p.done <- struct{}{}
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Backend returns the sampling backend in use.
func (p *Pool) Backend() compute.Backend { return p.backend }

// Run distributes n trajectories of it across the workers and blocks
// until every chunk is done. it must not be modified until Run returns.
func (p *Pool) Run(it *Iterator, n int) {
	parts := Partition(n, len(p.workers))
	dispatched := 0
	for i, w := range p.workers {
		if parts[i] == 0 {
			continue
		}
		w.work <- workChunk{it: it, n: parts[i]}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.done
	}
}

// Merge folds every private buffer into dst. Private buffers are kept.
func (p *Pool) Merge(dst *density.Buffer) error {
	return dst.Fold(p.bufs)
}

// Clear zeroes every private buffer and the hit counters.
func (p *Pool) Clear() {
	for _, w := range p.workers {
		w.buf.Clear()
		w.hits = 0
	}
}

// Buffers exposes the private buffers for inspection after a barrier.
func (p *Pool) Buffers() []*density.Buffer { return p.bufs }

// Hits returns the number of in-grid points deposited since Clear.
func (p *Pool) Hits() int {
	total := 0
	for _, w := range p.workers {
		total += w.hits
	}
	return total
}

// Close stops the workers. The pool must be idle.
func (p *Pool) Close() {
	if !p.running {
		return
	}
	close(p.stop)
	p.wg.Wait()
	p.running = false
}
