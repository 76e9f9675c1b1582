package compute

import (
	"fmt"
	"math/rand"
	"runtime"

	"github.com/san-kum/popcorn/internal/density"
	"github.com/san-kum/popcorn/internal/dynamo"
	"golang.org/x/sys/cpu"
)

// Tracer walks trajectories into a buffer.
type Tracer interface {
	Trace(rng *rand.Rand, dst *density.Buffer) int
	Trace4(rng *rand.Rand, dst *density.Buffer) int
}

type Backend interface {
	Name() string
	Available() bool
	// Sample deposits n trajectories and returns how many points landed.
	Sample(t Tracer, rng *rand.Rand, n int, dst *density.Buffer) int
}

// Backend names accepted by Select.
const (
	Auto   = "auto"
	Scalar = "scalar"
	Batch4 = "batch4"
)

func Select(name string) (Backend, error) {
	switch name {
	case "", Auto:
		return AutoSelectBackend(), nil
	case Scalar:
		return NewScalarBackend(), nil
	case Batch4:
		return NewBatchBackend(), nil
	}
	return nil, &dynamo.ConfigError{Field: "compute.backend", Reason: fmt.Sprintf("unknown backend %q", name)}
}

// AutoSelectBackend picks batch4 on CPUs with wide vector units, else scalar.
func AutoSelectBackend() Backend {
	b := NewBatchBackend()
	if b.Available() {
		return b
	}
	return NewScalarBackend()
}

type ScalarBackend struct{}

func NewScalarBackend() *ScalarBackend { return &ScalarBackend{} }

func (s *ScalarBackend) Name() string    { return Scalar }
func (s *ScalarBackend) Available() bool { return true }

func (s *ScalarBackend) Sample(t Tracer, rng *rand.Rand, n int, dst *density.Buffer) int {
	hits := 0
	for i := 0; i < n; i++ {
		hits += t.Trace(rng, dst)
	}
	return hits
}

type BatchBackend struct {
	wide bool
}

func NewBatchBackend() *BatchBackend {
	wide := false
	switch runtime.GOARCH {
	case "amd64":
		wide = cpu.X86.HasAVX2
	case "arm64":
		wide = cpu.ARM64.HasASIMD
	}
	return &BatchBackend{wide: wide}
}

func (b *BatchBackend) Name() string    { return Batch4 }
func (b *BatchBackend) Available() bool { return b.wide }

// Sample runs n/4 batches and finishes the remainder on the scalar path.
// It works on any CPU; Available only steers automatic selection.
func (b *BatchBackend) Sample(t Tracer, rng *rand.Rand, n int, dst *density.Buffer) int {
	hits := 0
	for i := 0; i < n/4; i++ {
		hits += t.Trace4(rng, dst)
	}
	for i := 0; i < n%4; i++ {
		hits += t.Trace(rng, dst)
	}
	return hits
}
