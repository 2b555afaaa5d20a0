// Package backend defines the operation set every rendering backend
// implements and the registry the compositor selects one from at startup.
package backend

import (
	"errors"

	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

var (
	// ErrNoBackend is returned by Select when no backend could be initialised.
	ErrNoBackend = errors.New("backend: no usable backend")
	// ErrUnknownBackend is returned for a name that was never registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// WinData is a backend-specific per-window binding. Only the backend that
// returned it may interpret it.
type WinData any

// Backend is a rendering backend. A value is produced by the backend's
// InitFunc and is valid until Deinit.
//
// All methods must be called from the goroutine that initialised the
// backend; GPU state is bound to it.
type Backend interface {
	// Deinit releases every resource owned by the backend, including
	// bindings of windows that were never released.
	Deinit(s *session.Session)

	// PrepareWin creates the binding for a window that became paintable or
	// changed size. It must not be called twice for one window without an
	// intervening ReleaseWin.
	PrepareWin(s *session.Session, w *session.Window) (WinData, error)

	// RenderWin refreshes the binding from the window's current contents.
	// It is safe to call every frame.
	RenderWin(s *session.Session, w *session.Window, wd WinData, dirty region.Region)

	// Compose draws the window at (dstX, dstY), top-left origin, clipped to
	// clip. The clip region is never modified.
	Compose(s *session.Session, w *session.Window, wd WinData, dstX, dstY int, clip region.Region)

	// Present makes the composed frame visible.
	Present(s *session.Session)

	// ReleaseWin frees a binding. A nil binding is ignored.
	ReleaseWin(s *session.Session, w *session.Window, wd WinData)

	// BufferAge reports how many frames old the back buffer is, or -1 when
	// unknown. The result never exceeds MaxBufferAge.
	BufferAge(s *session.Session) int
	MaxBufferAge() int

	IsWinTransparent(w *session.Window) bool
	IsFrameTransparent(w *session.Window) bool
}

// DefaultPredicates provides the shared transparency policy. Backends
// embed it unless they need something else.
type DefaultPredicates struct{}

// IsWinTransparent reports a window as transparent when its depth has an
// alpha channel or it is not fully opaque.
func (DefaultPredicates) IsWinTransparent(w *session.Window) bool {
	return w.HasAlpha() || w.Opacity < 1
}

// IsFrameTransparent reports whether the window frame is drawn translucent.
func (DefaultPredicates) IsFrameTransparent(w *session.Window) bool {
	return w.FrameOpacity < 1
}

// Clearer is implemented by backends that can paint the background of
// areas no window covers.
type Clearer interface {
	// Clear fills clip, top-left origin, with opaque black.
	Clear(s *session.Session, clip region.Region)
}

// Resizer is implemented by backends holding state sized to the root
// window. Resize is called after the session's root size changed.
type Resizer interface {
	Resize(s *session.Session) error
}
