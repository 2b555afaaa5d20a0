package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/glaze/internal/session"
)

const opacityAtom = "_NET_WM_WINDOW_OPACITY"

// opacityFromProp converts a _NET_WM_WINDOW_OPACITY value to [0, 1].
func opacityFromProp(v uint) float64 {
	if v >= 0xffffffff {
		return 1
	}
	return float64(v) / 0xffffffff
}

// Window returns the paintable state of a top-level window. InputOnly
// windows yield ErrNotPaintable.
func (c *Connection) Window(id xproto.Window) (*session.Window, error) {
	conn := c.XUtil.Conn()
	attrsCookie := xproto.GetWindowAttributes(conn, id)
	geomCookie := xproto.GetGeometry(conn, xproto.Drawable(id))

	attrs, err := attrsCookie.Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get attributes of window %#x: %w", id, err)
	}
	geom, err := geomCookie.Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get geometry of window %#x: %w", id, err)
	}

	opacity := 1.0
	if v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, id, opacityAtom)); err == nil {
		opacity = opacityFromProp(v)
	}
	return windowFromReplies(id, attrs, geom, opacity)
}

func windowFromReplies(id xproto.Window, attrs *xproto.GetWindowAttributesReply,
	geom *xproto.GetGeometryReply, opacity float64) (*session.Window, error) {
	if attrs.Class == xproto.WindowClassInputOnly {
		return nil, fmt.Errorf("%w: %#x is InputOnly", ErrNotPaintable, id)
	}
	return &session.Window{
		ID:           id,
		X:            int(geom.X),
		Y:            int(geom.Y),
		Width:        int(geom.Width),
		Height:       int(geom.Height),
		BorderWidth:  int(geom.BorderWidth),
		Depth:        int(geom.Depth),
		Visual:       attrs.Visual,
		Mapped:       attrs.MapState == xproto.MapStateViewable,
		Opacity:      opacity,
		FrameOpacity: 1,
	}, nil
}

// ListWindows returns the InputOutput children of the root, mapped or
// not, bottom-most first. Windows that vanish while listing are skipped.
func (c *Connection) ListWindows() ([]*session.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query root children: %w", err)
	}

	var windows []*session.Window
	for _, id := range tree.Children {
		if id == c.overlay || id == c.cmOwner {
			continue
		}
		w, err := c.Window(id)
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// SelectRootEvents subscribes to structure changes of the root's
// children.
func (c *Connection) SelectRootEvents() error {
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{xproto.EventMaskSubstructureNotify}).Check()
	if err != nil {
		return fmt.Errorf("failed to select root events: %w", err)
	}
	return nil
}

// SelectWindowEvents subscribes to property changes of a window, which
// carry opacity updates.
func (c *Connection) SelectWindowEvents(id xproto.Window) {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), id,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange})
}

// IsOpacityAtom reports whether atom names _NET_WM_WINDOW_OPACITY.
func (c *Connection) IsOpacityAtom(atom xproto.Atom) bool {
	a, err := xprop.Atm(c.XUtil, opacityAtom)
	return err == nil && a == atom
}
