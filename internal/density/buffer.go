package density

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Buffer is a width x height grid of accumulated weight.
type Buffer struct {
	Width, Height int
	Cells         []float64
}

func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Cells:  make([]float64, width*height),
	}
}

// Index returns the row-major offset of cell (x, y).
func (b *Buffer) Index(x, y int) int {
	return x + y*b.Width
}

func (b *Buffer) At(x, y int) float64 {
	return b.Cells[b.Index(x, y)]
}

// Clear zeroes every cell without reallocating.
func (b *Buffer) Clear() {
	clear(b.Cells)
}

// Add sums src into b cell by cell.
func (b *Buffer) Add(src *Buffer) error {
	if !b.SameShape(src) {
		return fmt.Errorf("density: shape mismatch %dx%d vs %dx%d", b.Width, b.Height, src.Width, src.Height)
	}
	floats.Add(b.Cells, src.Cells)
	return nil
}

// Fold overwrites b with the sum of srcs.
func (b *Buffer) Fold(srcs []*Buffer) error {
	b.Clear()
	for _, s := range srcs {
		if err := b.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the summed mass of all cells.
func (b *Buffer) Total() float64 {
	return floats.Sum(b.Cells)
}

// Max returns the largest cell value, 0 for an empty buffer.
func (b *Buffer) Max() float64 {
	if len(b.Cells) == 0 {
		return 0
	}
	return floats.Max(b.Cells)
}

func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && len(b.Cells) == len(o.Cells)
}

// Centroid returns the mass-weighted mean cell coordinate.
func (b *Buffer) Centroid() (cx, cy float64) {
	total := 0.0
	for y := 0; y < b.Height; y++ {
		row := b.Cells[y*b.Width : (y+1)*b.Width]
		for x, v := range row {
			cx += float64(x) * v
			cy += float64(y) * v
			total += v
		}
	}
	if total == 0 {
		return 0, 0
	}
	return cx / total, cy / total
}

// RowProfile returns the per-row sums, top row first.
func (b *Buffer) RowProfile() []float64 {
	out := make([]float64, b.Height)
	for y := range out {
		out[y] = floats.Sum(b.Cells[y*b.Width : (y+1)*b.Width])
	}
	return out
}
