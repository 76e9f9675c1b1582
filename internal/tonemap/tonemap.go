// Package tonemap projects merged density onto output colour. The
// display path is a clamped 8-bit grayscale preview; the radiance path is
// linear floating point for HDR export. Both use square-root compression
// but with independent gain constants.
package tonemap

import (
	"image/color"
	"math"

	"github.com/san-kum/popcorn/internal/density"
	"github.com/san-kum/popcorn/internal/dynamo"
)

// rows per goroutine when mapping in parallel
const minRows = 32

// PixelBuffer is the packed preview image pushed to the display.
type PixelBuffer struct {
	Width, Height int
	Pix           []color.RGBA
}

func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{Width: width, Height: height, Pix: make([]color.RGBA, width*height)}
}

// RadianceFrame holds linear RGB radiance, three float32 per pixel.
type RadianceFrame struct {
	Width, Height int
	Pix           []float32
}

func NewRadianceFrame(width, height int) *RadianceFrame {
	return &RadianceFrame{Width: width, Height: height, Pix: make([]float32, 3*width*height)}
}

// At returns the RGB triple of pixel (x, y).
func (f *RadianceFrame) At(x, y int) (r, g, b float32) {
	i := 3 * (x + y*f.Width)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Level is the display intensity for one density value.
func Level(d, intensify float64) uint8 {
	v := math.Sqrt(d) * intensify
	if !(v < 255) {
		if math.IsNaN(v) {
			return 0
		}
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// Display writes the grayscale preview of src into dst.
func Display(src *density.Buffer, dst *PixelBuffer, intensify float64) {
	w := src.Width
	dynamo.ParallelFor(src.Height, minRows, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			l := Level(src.Cells[i], intensify)
			dst.Pix[i] = color.RGBA{R: l, G: l, B: l, A: 255}
		}
	})
}

// Radiance writes sqrt(density)/dampen into all three channels of dst.
func Radiance(src *density.Buffer, dst *RadianceFrame, dampen float64) {
	w := src.Width
	inv := 1 / dampen
	dynamo.ParallelFor(src.Height, minRows, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			v := float32(math.Sqrt(src.Cells[i]) * inv)
			j := 3 * i
			dst.Pix[j] = v
			dst.Pix[j+1] = v
			dst.Pix[j+2] = v
		}
	})
}
