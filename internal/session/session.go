// Package session holds the state shared between the compositor and the
// rendering backends: the display connection, root geometry and the
// global render options. Backends borrow a *Session for the duration of
// each call and never own it.
package session

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// SwapMethod describes what the presentation surface's back buffer holds
// after a swap.
type SwapMethod int

const (
	// SwapUndefined makes no assumption; every frame is a full redraw.
	SwapUndefined SwapMethod = iota
	// SwapBufferAge queries the back buffer age after every swap.
	SwapBufferAge
)

func (m SwapMethod) String() string {
	switch m {
	case SwapBufferAge:
		return "buffer-age"
	default:
		return "undefined"
	}
}

// ParseSwapMethod parses the textual form used in configuration files.
func ParseSwapMethod(s string) (SwapMethod, error) {
	switch s {
	case "", "undefined":
		return SwapUndefined, nil
	case "buffer-age":
		return SwapBufferAge, nil
	default:
		return SwapUndefined, fmt.Errorf("invalid swap method %q (valid: undefined, buffer-age)", s)
	}
}

// BlurKernel is a convolution kernel with Width*Height row-major weights.
// Both dimensions are odd.
type BlurKernel struct {
	Width   int
	Height  int
	Weights []float64
}

// Center returns the weight of the middle element.
func (k BlurKernel) Center() float64 {
	return k.Weights[(k.Height/2)*k.Width+k.Width/2]
}

// Options are the render parameters the backends read.
type Options struct {
	// Backend names the backend to use; empty selects by priority.
	Backend string
	// GLXNoStencil disables the stencil buffer requirement.
	GLXNoStencil bool
	SwapMethod   SwapMethod
	BlurKernels  []BlurKernel
	// WindowShader is custom fragment shader source for window painting.
	WindowShader string
}

// PixmapNamer names and frees the off-screen pixmap backing a redirected
// window.
type PixmapNamer interface {
	NameWindowPixmap(win xproto.Window) (xproto.Pixmap, error)
	FreePixmap(p xproto.Pixmap)
}

// Session is the compositor-wide state handed to backend calls.
type Session struct {
	Conn        *xgb.Conn
	DisplayName string
	Screen      int
	Root        xproto.Window
	// Overlay is the composite overlay window, or 0 when painting to root.
	Overlay xproto.Window

	RootWidth  int
	RootHeight int
	Depth      int
	Visual     xproto.Visualid

	// HasNamePixmap is set when the server supports naming window pixmaps
	// (Composite >= 0.2).
	HasNamePixmap bool
	Pixmaps       PixmapNamer

	Options Options
	Logger  *slog.Logger
}

// Target returns the drawable frames are presented to.
func (s *Session) Target() xproto.Window {
	if s.Overlay != 0 {
		return s.Overlay
	}
	return s.Root
}

// Log returns the session logger, falling back to slog's default.
func (s *Session) Log() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
