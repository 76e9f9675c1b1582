package display

import (
	"github.com/san-kum/popcorn/internal/sim"
	"github.com/san-kum/popcorn/internal/tonemap"
)

// Surface is a sim.Surface that owns resources.
type Surface interface {
	sim.Surface
	Close() error
}

// Null discards everything. It counts presents so tests and the bench
// command can check tick cadence.
type Null struct {
	Presents int
	Last     sim.Status
}

func (n *Null) Present(_ *tonemap.PixelBuffer, st sim.Status) error {
	n.Presents++
	n.Last = st
	return nil
}

func (n *Null) Cancelled() bool { return false }
func (n *Null) Close() error    { return nil }

var (
	_ Surface = (*Null)(nil)
	_ Surface = (*Window)(nil)
	_ Surface = (*Terminal)(nil)
)
