package display

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/popcorn/internal/sim"
	"github.com/san-kum/popcorn/internal/tonemap"
	"github.com/san-kum/popcorn/internal/viz"
)

type statusMsg sim.Status

// tickHistory is how many recent tick times the sparkline shows.
const tickHistory = 48

type progressModel struct {
	title string
	st    sim.Status
	quit  *atomic.Bool
	width int
	ticks []float64
}

func newProgressModel(title string, quit *atomic.Bool) progressModel {
	return progressModel{title: title, quit: quit, width: 40}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quit.Store(true)
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(10, min(msg.Width-20, 60))
	case statusMsg:
		m.st = sim.Status(msg)
		m.ticks = append(m.ticks, float64(msg.TickTime)/float64(time.Millisecond))
		if len(m.ticks) > tickHistory {
			m.ticks = m.ticks[len(m.ticks)-tickHistory:]
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	st := m.st
	var b strings.Builder

	state := viz.StatusRunning.Render("rendering")
	if m.quit.Load() {
		state = viz.StatusStopped.Render("stopping")
	}
	b.WriteString(viz.Title.Render(m.title) + "  " + state + "\n\n")

	if st.MaxFrames > 0 {
		b.WriteString(viz.MetricLabel.Render("frames") +
			viz.ProgressBar(fraction(st.Frame, st.MaxFrames), m.width) +
			fmt.Sprintf(" %d/%d\n", st.Frame, st.MaxFrames))
	} else {
		b.WriteString(viz.Metric("frame", st.Frame) + "\n")
	}
	b.WriteString(viz.MetricLabel.Render("ticks") +
		viz.ProgressBar(fraction(st.Tick, st.Ticks), m.width) +
		fmt.Sprintf(" %d/%d\n", st.Tick, st.Ticks))

	b.WriteString(viz.Metric("samples", fmt.Sprintf("%d/%d", st.Samples, st.FrameSamples)) + "\n")
	b.WriteString(viz.Metric("hits", st.Hits) + "\n")
	b.WriteString(viz.Metric("t", fmt.Sprintf("%.4f %.4f %.4f %.4f", st.Coeffs[0], st.Coeffs[1], st.Coeffs[2], st.Coeffs[3])) + "\n")
	b.WriteString(viz.Metric("offset y", fmt.Sprintf("%.4f", st.OffsetY)) + "\n")
	b.WriteString(viz.Metric("elapsed", st.Elapsed.Round(time.Millisecond)) + "\n")
	b.WriteString(viz.MetricLabel.Render("tick ms") + viz.Sparkline(m.ticks, min(len(m.ticks), tickHistory)) +
		fmt.Sprintf(" %.2f\n", float64(st.TickTime)/float64(time.Millisecond)))
	b.WriteString(viz.Metric("backend", st.Backend) + "\n\n")
	b.WriteString(viz.KeyHint.Render("q quit"))

	return viz.Panel.Render(b.String()) + "\n"
}

func fraction(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Terminal is a progress view for runs without a window. The bubbletea
// program runs on its own goroutine; Present only sends it messages.
type Terminal struct {
	prog *tea.Program
	quit atomic.Bool
	done chan struct{}
}

// NewTerminal starts the progress view on out. in supplies key presses; a
// nil in disables keyboard quit.
func NewTerminal(title string, in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{done: make(chan struct{})}
	t.prog = tea.NewProgram(newProgressModel(title, &t.quit),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	go func() {
		defer close(t.done)
		if _, err := t.prog.Run(); err != nil {
			slog.Warn("progress view stopped", "error", err)
		}
	}()
	return t
}

func (t *Terminal) Present(_ *tonemap.PixelBuffer, st sim.Status) error {
	t.prog.Send(statusMsg(st))
	return nil
}

func (t *Terminal) Cancelled() bool { return t.quit.Load() }

// Close stops the program and waits for it to restore the terminal.
func (t *Terminal) Close() error {
	t.prog.Quit()
	<-t.done
	return nil
}
