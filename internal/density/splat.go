package density

import (
	"math"

	"github.com/san-kum/popcorn/internal/dynamo"
)

// Projector maps positions in the domain window to pixel coordinates.
type Projector struct {
	window        dynamo.Window
	width, height float64
}

func NewProjector(w dynamo.Window, width, height int) Projector {
	return Projector{window: w, width: float64(width), height: float64(height)}
}

// WithOffset returns a copy using a new window offset.
func (p Projector) WithOffset(offsetX, offsetY float64) Projector {
	p.window.OffsetX = offsetX
	p.window.OffsetY = offsetY
	return p
}

func (p Projector) Window() dynamo.Window { return p.window }

// Project maps v into continuous pixel space. The window's
// [-Width, Width] range lands on [0, width] before the offset shift.
func (p Projector) Project(v dynamo.Vec2) (px, py float64) {
	w := p.window
	px = ((v.X+w.Width)*.5 + w.OffsetX) / w.Width * p.width
	py = ((v.Y+w.Height)*.5 + w.OffsetY) / w.Height * p.height
	return
}

// Weights returns the lower-left cell of (px, py) and the four bilinear
// weights in the order (x0,y0), (x1,y0), (x0,y1), (x1,y1).
func Weights(px, py float64) (x0, y0 int, w [4]float64) {
	fx, fy := math.Floor(px), math.Floor(py)
	xfac, yfac := px-fx, py-fy
	ixfac, iyfac := 1-xfac, 1-yfac
	w[0] = ixfac * iyfac
	w[1] = xfac * iyfac
	w[2] = ixfac * yfac
	w[3] = xfac * yfac
	return int(fx), int(fy), w
}

// Splat deposits unit mass at pixel coordinate (px, py). Nothing is
// written unless all four cells are inside the grid; this also drops NaN
// and infinite coordinates.
func (b *Buffer) Splat(px, py float64) bool {
	if !(px >= 0 && py >= 0 && px < float64(b.Width-1) && py < float64(b.Height-1)) {
		return false
	}
	fx, fy := math.Floor(px), math.Floor(py)
	x0, y0 := int(fx), int(fy)
	xfac, yfac := px-fx, py-fy
	ixfac, iyfac := 1-xfac, 1-yfac

	i := x0 + y0*b.Width
	c := b.Cells[i : i+b.Width+2 : i+b.Width+2]
	c[0] += ixfac * iyfac
	c[1] += xfac * iyfac
	c[b.Width] += ixfac * yfac
	c[b.Width+1] += xfac * yfac
	return true
}

// Insert projects v and splats it.
func (b *Buffer) Insert(p Projector, v dynamo.Vec2) bool {
	px, py := p.Project(v)
	return b.Splat(px, py)
}
