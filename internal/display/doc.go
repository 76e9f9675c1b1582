// Package display implements the surfaces the engine presents to: a raylib
// window that streams the preview into a texture, a bubbletea progress view
// for headless renders, and a null surface.
//
// Every surface reports user cancellation through Cancelled, which the
// engine polls between ticks.
package display
