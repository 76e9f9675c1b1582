// Package export writes finished frames to disk: Radiance RGBE (.hdr)
// images and a per-frame CSV log.
package export

import (
	"bufio"
	"image"
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/san-kum/popcorn/internal/tonemap"
)

// HDRImage copies f into an hdr image, top row first.
func HDRImage(f *tonemap.RadianceFrame) *hdr.RGB {
	img := hdr.NewRGB(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.At(x, y)
			img.SetRGB(x, y, hdrcolor.RGB{R: float64(r), G: float64(g), B: float64(b)})
		}
	}
	return img
}

// WriteRGBE encodes f as a run-length encoded Radiance picture.
func WriteRGBE(w io.Writer, f *tonemap.RadianceFrame) error {
	bw := bufio.NewWriter(w)
	if err := rgbe.Encode(bw, HDRImage(f)); err != nil {
		return err
	}
	return bw.Flush()
}
