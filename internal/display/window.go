package display

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/sim"
	"github.com/san-kum/popcorn/internal/tonemap"
)

const statusHeight = 22

var colBg = rl.NewColor(10, 10, 10, 255)

// WindowOptions configure the raylib window.
type WindowOptions struct {
	Title     string
	TargetFPS int
	// Overlay draws a status bar with frame and tick counters.
	Overlay bool
}

// Window streams the preview pixel buffer into a texture every tick. All
// calls must come from the goroutine that opened it.
type Window struct {
	width, height int
	opts          WindowOptions
	tex           rl.Texture2D
	quit          bool
	closed        bool
}

// OpenWindow creates the native window. It returns an error wrapping
// dynamo.ErrDisplayInit when the platform cannot provide one.
func OpenWindow(width, height int, opts WindowOptions) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("window %dx%d: %w", width, height, dynamo.ErrDisplayInit)
	}
	if opts.Title == "" {
		opts.Title = "popcorn"
	}

	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(width), int32(height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, fmt.Errorf("window %dx%d: %w", width, height, dynamo.ErrDisplayInit)
	}
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}

	img := rl.GenImageColor(width, height, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	return &Window{width: width, height: height, opts: opts, tex: tex}, nil
}

// Present uploads pixels (when non-nil) and redraws. Events are polled as
// part of EndDrawing.
func (w *Window) Present(pixels *tonemap.PixelBuffer, st sim.Status) error {
	if w.closed {
		return nil
	}
	if pixels != nil {
		if pixels.Width != w.width || pixels.Height != w.height {
			return fmt.Errorf("pixel buffer %dx%d does not match window %dx%d",
				pixels.Width, pixels.Height, w.width, w.height)
		}
		rl.UpdateTexture(w.tex, pixels.Pix)
	}

	rl.BeginDrawing()
	rl.ClearBackground(colBg)
	rl.DrawTexture(w.tex, 0, 0, rl.White)
	if w.opts.Overlay {
		bounds := rl.Rectangle{X: 0, Y: float32(w.height - statusHeight), Width: float32(w.width), Height: statusHeight}
		gui.StatusBar(bounds, statusLine(st))
	}
	rl.EndDrawing()

	if rl.IsKeyPressed(rl.KeyQ) {
		w.quit = true
	}
	return nil
}

// Cancelled reports a close request, ESC or Q.
func (w *Window) Cancelled() bool {
	if w.closed {
		return true
	}
	return w.quit || rl.WindowShouldClose()
}

func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	rl.UnloadTexture(w.tex)
	rl.CloseWindow()
	return nil
}

func statusLine(st sim.Status) string {
	frame := fmt.Sprintf("frame %d", st.Frame)
	if st.MaxFrames > 0 {
		frame = fmt.Sprintf("frame %d/%d", st.Frame, st.MaxFrames)
	}
	return fmt.Sprintf("%s  tick %d/%d  samples %d  %s",
		frame, st.Tick, st.Ticks, st.Samples, st.Backend)
}
