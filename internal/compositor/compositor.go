// Package compositor paints the redirected windows through a backend.
// It owns the per-window bindings and the damage history used to repaint
// only what a reused back buffer is missing.
package compositor

import (
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

type binding struct {
	win  session.Window
	data backend.WinData
	// failed is set when PrepareWin failed for the current geometry; the
	// window is skipped until it changes.
	failed bool
}

func (b *binding) matches(w *session.Window) bool {
	return b.win.WidthB() == w.WidthB() && b.win.HeightB() == w.HeightB() && b.win.Depth == w.Depth
}

// Compositor drives one backend. It is not safe for concurrent use; all
// calls must come from the goroutine the backend was initialised on.
type Compositor struct {
	s      *session.Session
	b      backend.Backend
	logger *slog.Logger

	bindings map[xproto.Window]*binding
	// history holds the damage of previous frames, newest first.
	history []region.Region
}

// New returns a compositor painting through b.
func New(s *session.Session, b backend.Backend) *Compositor {
	return &Compositor{
		s:        s,
		b:        b,
		logger:   s.Log().With("component", "compositor"),
		bindings: make(map[xproto.Window]*binding),
	}
}

func (c *Compositor) screen() region.Rect {
	return region.XYWH(0, 0, c.s.RootWidth, c.s.RootHeight)
}

// paintRegion returns what must be repainted for a back buffer that is
// age frames old, given the damage of this frame. An unknown age, or one
// older than the history, means the whole screen.
func (c *Compositor) paintRegion(age int, damage region.Region) region.Region {
	screen := region.New(c.screen())
	if age <= 0 || age-1 > len(c.history) {
		return screen
	}
	paint := damage
	for _, h := range c.history[:age-1] {
		paint = paint.Union(h)
	}
	return paint.Intersect(screen)
}

func (c *Compositor) remember(damage region.Region) {
	limit := c.b.MaxBufferAge()
	if limit <= 0 {
		c.history = c.history[:0]
		return
	}
	c.history = append([]region.Region{damage}, c.history...)
	if len(c.history) > limit {
		c.history = c.history[:limit]
	}
}

// Paint composes windows, bottom-most first, over the area damage leaves
// stale in the back buffer and presents the frame. It reports whether a
// frame was presented.
func (c *Compositor) Paint(windows []*session.Window, damage region.Region) bool {
	paint := c.paintRegion(c.b.BufferAge(c.s), damage)
	c.remember(damage)
	if paint.Empty() {
		return false
	}

	if cl, ok := c.b.(backend.Clearer); ok {
		cl.Clear(c.s, paint)
	}

	for _, w := range windows {
		if !w.Mapped {
			continue
		}
		visible := paint.IntersectRect(w.Bounds())
		if visible.Empty() {
			continue
		}
		bd := c.bind(w)
		if bd == nil {
			continue
		}
		c.b.RenderWin(c.s, w, bd.data, visible.Translate(-w.X, -w.Y))
		c.b.Compose(c.s, w, bd.data, w.X, w.Y, paint)
	}

	c.b.Present(c.s)
	return true
}

// bind returns the binding for w, preparing it on first sight or when
// the window changed size or depth. It returns nil when the window
// cannot be painted.
func (c *Compositor) bind(w *session.Window) *binding {
	bd, ok := c.bindings[w.ID]
	if ok && bd.matches(w) {
		bd.win = *w
		if bd.failed {
			return nil
		}
		return bd
	}
	if ok {
		c.release(bd)
	}

	bd = &binding{win: *w}
	c.bindings[w.ID] = bd
	data, err := c.b.PrepareWin(c.s, w)
	if err != nil {
		c.logger.Warn("window cannot be painted", "window", w.ID, "error", err)
		bd.failed = true
		return nil
	}
	bd.data = data
	return bd
}

func (c *Compositor) release(bd *binding) {
	if bd.data != nil {
		c.b.ReleaseWin(c.s, &bd.win, bd.data)
		bd.data = nil
	}
}

// Forget releases the binding of a window that was unmapped or destroyed.
func (c *Compositor) Forget(id xproto.Window) {
	bd, ok := c.bindings[id]
	if !ok {
		return
	}
	c.release(bd)
	delete(c.bindings, id)
}

// Bound reports whether a window currently has a backend binding.
func (c *Compositor) Bound(id xproto.Window) bool {
	bd, ok := c.bindings[id]
	return ok && bd.data != nil
}

// Invalidate drops the damage history so the next frame repaints the
// whole screen. It is called when the root size changed; backends that
// size state to the root are resized.
func (c *Compositor) Invalidate() {
	c.history = nil
	if r, ok := c.b.(backend.Resizer); ok {
		if err := r.Resize(c.s); err != nil {
			c.logger.Error("backend resize failed", "error", err)
		}
	}
}

// Close releases every binding and deinitialises the backend.
func (c *Compositor) Close() {
	for id := range c.bindings {
		c.Forget(id)
	}
	c.b.Deinit(c.s)
}
