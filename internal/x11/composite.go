package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// cmSelectionName is the EWMH compositing manager selection of a screen.
func cmSelectionName(screen int) string {
	return fmt.Sprintf("_NET_WM_CM_S%d", screen)
}

// RegisterCompositor takes the _NET_WM_CM_S<n> selection through a
// hidden window. It fails with ErrAnotherCompositor when the selection
// is owned already.
func (c *Connection) RegisterCompositor() error {
	conn := c.XUtil.Conn()
	name := cmSelectionName(conn.DefaultScreen)
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", name, err)
	}

	owner, err := xproto.GetSelectionOwner(conn, atom).Reply()
	if err != nil {
		return fmt.Errorf("failed to get %s owner: %w", name, err)
	}
	if owner.Owner != xproto.WindowNone {
		return fmt.Errorf("%w (%s owned by %#x)", ErrAnotherCompositor, name, owner.Owner)
	}

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}
	screen := c.XUtil.Screen()
	err = xproto.CreateWindowChecked(conn, xproto.WindowClassCopyFromParent, wid, c.Root,
		-1, -1, 1, 1, 0, xproto.WindowClassInputOnly, screen.RootVisual, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to create selection window: %w", err)
	}
	c.cmOwner = wid

	if err := xproto.SetSelectionOwnerChecked(conn, wid, atom, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to own %s: %w", name, err)
	}
	return nil
}

// RedirectSubwindows redirects every child of the root off-screen with
// manual updates; the compositor paints them itself.
func (c *Connection) RedirectSubwindows() error {
	err := composite.RedirectSubwindowsChecked(c.XUtil.Conn(), c.Root, composite.RedirectManual).Check()
	if err != nil {
		return fmt.Errorf("failed to redirect subwindows (is another compositor running?): %w", err)
	}
	c.redirected = true
	return nil
}

// UnredirectSubwindows undoes RedirectSubwindows.
func (c *Connection) UnredirectSubwindows() {
	if !c.redirected {
		return
	}
	composite.UnredirectSubwindows(c.XUtil.Conn(), c.Root, composite.RedirectManual)
	c.redirected = false
}

// AcquireOverlay fetches the composite overlay window and makes it
// transparent to input.
func (c *Connection) AcquireOverlay() (xproto.Window, error) {
	if c.overlay != 0 {
		return c.overlay, nil
	}
	conn := c.XUtil.Conn()
	reply, err := composite.GetOverlayWindow(conn, c.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get overlay window: %w", err)
	}
	c.overlay = reply.OverlayWin

	region, err := xfixes.NewRegionId(conn)
	if err != nil {
		c.ReleaseOverlay()
		return 0, fmt.Errorf("failed to allocate region id: %w", err)
	}
	xfixes.CreateRegion(conn, region, nil)
	xfixes.SetWindowShapeRegion(conn, c.overlay, shape.SkInput, 0, 0, region)
	xfixes.DestroyRegion(conn, region)
	return c.overlay, nil
}

// ReleaseOverlay gives the overlay window back.
func (c *Connection) ReleaseOverlay() {
	if c.overlay == 0 {
		return
	}
	composite.ReleaseOverlayWindow(c.XUtil.Conn(), c.Root)
	c.overlay = 0
}

// NameWindowPixmap names the off-screen pixmap holding a redirected
// window's contents. The name stays valid until FreePixmap even if the
// window is resized or destroyed.
func (c *Connection) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, error) {
	conn := c.XUtil.Conn()
	p, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	if err := composite.NameWindowPixmapChecked(conn, win, p).Check(); err != nil {
		return 0, fmt.Errorf("failed to name pixmap of window %#x: %w", win, err)
	}
	return p, nil
}

// FreePixmap frees a pixmap named by NameWindowPixmap.
func (c *Connection) FreePixmap(p xproto.Pixmap) {
	xproto.FreePixmap(c.XUtil.Conn(), p)
}
