package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/region"
)

// TrackDamage starts damage reporting for a window. Reports arrive as
// damage.NotifyEvent whenever the window goes from undamaged to damaged.
func (c *Connection) TrackDamage(win xproto.Window) error {
	if _, ok := c.damages[win]; ok {
		return nil
	}
	conn := c.XUtil.Conn()
	d, err := damage.NewDamageId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate damage id: %w", err)
	}
	err = damage.CreateChecked(conn, d, xproto.Drawable(win), damage.ReportLevelNonEmpty).Check()
	if err != nil {
		return fmt.Errorf("failed to track damage of window %#x: %w", win, err)
	}
	c.damages[win] = d
	return nil
}

// ForgetDamage stops damage reporting for a window. Destroyed windows
// take their damage object with them; destroying it again only yields an
// ignored error.
func (c *Connection) ForgetDamage(win xproto.Window) {
	d, ok := c.damages[win]
	if !ok {
		return
	}
	damage.Destroy(c.XUtil.Conn(), d)
	delete(c.damages, win)
}

// SubtractDamage marks all of a window's damage repaired so the next
// change is reported again, and returns what was repaired relative to
// the window origin. A NonEmpty damage object reports only the first
// change; the rest is only visible here.
func (c *Connection) SubtractDamage(win xproto.Window) (region.Region, error) {
	d, ok := c.damages[win]
	if !ok {
		return region.Region{}, nil
	}
	conn := c.XUtil.Conn()
	damage.Subtract(conn, d, 0, c.parts)
	reply, err := xfixes.FetchRegion(conn, c.parts).Reply()
	if err != nil {
		return region.Region{}, fmt.Errorf("failed to fetch damage of window %#x: %w", win, err)
	}
	return regionFromRects(reply.Rectangles), nil
}

func regionFromRects(rects []xproto.Rectangle) region.Region {
	out := make([]region.Rect, 0, len(rects))
	for _, r := range rects {
		out = append(out, region.XYWH(int(r.X), int(r.Y), int(r.Width), int(r.Height)))
	}
	return region.New(out...)
}

// DamageOwner returns the window a damage object belongs to.
func (c *Connection) DamageOwner(d damage.Damage) (xproto.Window, bool) {
	for win, dd := range c.damages {
		if dd == d {
			return win, true
		}
	}
	return 0, false
}
