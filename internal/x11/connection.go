// Package x11 wraps the X server connection the compositor runs on:
// extension setup, compositing manager registration, redirection, the
// overlay window, window queries and damage tracking.
package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/glaze/internal/session"
)

var (
	// ErrAnotherCompositor is returned when the compositing manager
	// selection already has an owner.
	ErrAnotherCompositor = errors.New("another compositing manager is already running")
	// ErrNotPaintable is returned for windows that have no contents.
	ErrNotPaintable = errors.New("window is not paintable")
)

// Connection manages the X11 connection and the compositor's X resources
type Connection struct {
	XUtil       *xgbutil.XUtil
	Root        xproto.Window
	DisplayName string

	compositeMinor uint32

	cmOwner    xproto.Window
	overlay    xproto.Window
	redirected bool
	damages    map[xproto.Window]damage.Damage
	// parts receives the damage repaired by SubtractDamage.
	parts xfixes.Region
}

// NewConnection connects to display (empty means $DISPLAY) and
// initializes the Composite, Damage, XFixes and Shape extensions.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}
	if display == "" {
		display = os.Getenv("DISPLAY")
	}

	c := &Connection{
		XUtil:       xu,
		Root:        xu.RootWin(),
		DisplayName: display,
		damages:     make(map[xproto.Window]damage.Damage),
	}
	if err := c.initExtensions(); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) initExtensions() error {
	conn := c.XUtil.Conn()

	if err := composite.Init(conn); err != nil {
		return fmt.Errorf("composite extension unavailable: %w", err)
	}
	cv, err := composite.QueryVersion(conn, 0, 4).Reply()
	if err != nil {
		return fmt.Errorf("failed to query composite version: %w", err)
	}
	if cv.MajorVersion == 0 && cv.MinorVersion < 1 {
		return fmt.Errorf("composite %d.%d is too old", cv.MajorVersion, cv.MinorVersion)
	}
	c.compositeMinor = cv.MinorVersion
	if cv.MajorVersion > 0 {
		c.compositeMinor = 4
	}

	if err := damage.Init(conn); err != nil {
		return fmt.Errorf("damage extension unavailable: %w", err)
	}
	if _, err := damage.QueryVersion(conn, 1, 1).Reply(); err != nil {
		return fmt.Errorf("failed to query damage version: %w", err)
	}

	if err := xfixes.Init(conn); err != nil {
		return fmt.Errorf("xfixes extension unavailable: %w", err)
	}
	xv, err := xfixes.QueryVersion(conn, 5, 0).Reply()
	if err != nil {
		return fmt.Errorf("failed to query xfixes version: %w", err)
	}
	if xv.MajorVersion < 2 {
		// Regions arrived in 2.0.
		return fmt.Errorf("xfixes %d.%d is too old", xv.MajorVersion, xv.MinorVersion)
	}
	if c.parts, err = xfixes.NewRegionId(conn); err != nil {
		return fmt.Errorf("failed to allocate region id: %w", err)
	}
	if err := xfixes.CreateRegionChecked(conn, c.parts, nil).Check(); err != nil {
		return fmt.Errorf("failed to create repair region: %w", err)
	}

	if err := shape.Init(conn); err != nil {
		return fmt.Errorf("shape extension unavailable: %w", err)
	}
	return nil
}

// Conn returns the underlying xgb connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// HasNamePixmap reports whether window pixmaps can be named
// (Composite >= 0.2).
func (c *Connection) HasNamePixmap() bool {
	return c.compositeMinor >= 2
}

// Session builds the state shared with the backends.
func (c *Connection) Session(opts session.Options, logger *slog.Logger) *session.Session {
	screen := c.XUtil.Screen()
	return &session.Session{
		Conn:          c.XUtil.Conn(),
		DisplayName:   c.DisplayName,
		Screen:        c.XUtil.Conn().DefaultScreen,
		Root:          c.Root,
		Overlay:       c.overlay,
		RootWidth:     int(screen.WidthInPixels),
		RootHeight:    int(screen.HeightInPixels),
		Depth:         int(screen.RootDepth),
		Visual:        screen.RootVisual,
		HasNamePixmap: c.HasNamePixmap(),
		Pixmaps:       c,
		Options:       opts,
		Logger:        logger,
	}
}

// Close releases everything the connection acquired and disconnects.
func (c *Connection) Close() {
	for win := range c.damages {
		c.ForgetDamage(win)
	}
	c.ReleaseOverlay()
	c.UnredirectSubwindows()
	if c.cmOwner != 0 {
		xproto.DestroyWindow(c.XUtil.Conn(), c.cmOwner)
		c.cmOwner = 0
	}
	if c.parts != 0 {
		xfixes.DestroyRegion(c.XUtil.Conn(), c.parts)
		c.parts = 0
	}
	c.XUtil.Conn().Close()
}

// WaitForEvent blocks for the next X event or error. Both are nil once
// the connection is closed.
func (c *Connection) WaitForEvent() (xgb.Event, xgb.Error) {
	return c.XUtil.Conn().WaitForEvent()
}
