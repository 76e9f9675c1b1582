package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/popcorn/internal/sim"
)

// FrameRecord is one CSV row per completed frame.
type FrameRecord struct {
	Frame    int     `csv:"frame"`
	Samples  int     `csv:"samples"`
	Hits     int     `csv:"hits"`
	Mass     float64 `csv:"mass"`
	CalcMs   float64 `csv:"calc_ms"`
	DrawMs   float64 `csv:"draw_ms"`
	ExportMs float64 `csv:"export_ms"`
	T0       float64 `csv:"t0"`
	T1       float64 `csv:"t1"`
	T2       float64 `csv:"t2"`
	T3       float64 `csv:"t3"`
	OffsetY  float64 `csv:"offset_y"`
}

func NewFrameRecord(s sim.FrameStats) FrameRecord {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return FrameRecord{
		Frame:    s.Frame,
		Samples:  s.Samples,
		Hits:     s.Hits,
		Mass:     s.Mass,
		CalcMs:   ms(s.Calc),
		DrawMs:   ms(s.Draw),
		ExportMs: ms(s.Export),
		T0:       s.Coeffs[0],
		T1:       s.Coeffs[1],
		T2:       s.Coeffs[2],
		T3:       s.Coeffs[3],
		OffsetY:  s.OffsetY,
	}
}

// FrameLog appends frame records to a CSV file.
type FrameLog struct {
	file          *os.File
	headerWritten bool
}

// NewFrameLog creates path. Returns nil, nil if path is empty.
func NewFrameLog(path string) (*FrameLog, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating frame log: %w", err)
	}
	return &FrameLog{file: f}, nil
}

func (l *FrameLog) Record(s sim.FrameStats) error {
	if l == nil {
		return nil
	}
	records := []FrameRecord{NewFrameRecord(s)}

	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing frame log: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing frame log: %w", err)
	}
	return nil
}

func (l *FrameLog) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}
