package session

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/region"
)

// Window is the compositor's record of a top-level window.
type Window struct {
	ID          xproto.Window
	X, Y        int
	Width       int
	Height      int
	BorderWidth int
	Depth       int
	// Visual is the window's visual; zero when unknown.
	Visual xproto.Visualid
	Mapped bool

	// Opacity and FrameOpacity are in [0,1].
	Opacity      float64
	FrameOpacity float64
}

// WidthB returns the width including both borders.
func (w *Window) WidthB() int {
	return w.Width + 2*w.BorderWidth
}

// HeightB returns the height including both borders.
func (w *Window) HeightB() int {
	return w.Height + 2*w.BorderWidth
}

// HasAlpha reports whether the window's depth carries an alpha channel.
func (w *Window) HasAlpha() bool {
	return w.Depth == 32
}

// Bounds returns the on-screen rectangle of the window including borders.
func (w *Window) Bounds() region.Rect {
	return region.XYWH(w.X, w.Y, w.WidthB(), w.HeightB())
}
