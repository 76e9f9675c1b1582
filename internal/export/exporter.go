package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/tonemap"
)

// Exporter writes radiance frames as <stub><frame>.hdr.
type Exporter struct {
	stub   string
	digits int
}

func NewExporter(stub string) *Exporter {
	return &Exporter{stub: stub, digits: 4}
}

// Path returns the file name for a frame index.
func (x *Exporter) Path(frame int) string {
	return fmt.Sprintf("%s%0*d.hdr", x.stub, x.digits, frame)
}

func (x *Exporter) Export(frame int, f *tonemap.RadianceFrame) (err error) {
	path := x.Path(frame)
	defer func() {
		if err != nil {
			err = &dynamo.ExportError{Frame: frame, Path: path, Wrapped: err}
		}
	}()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRGBE(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
