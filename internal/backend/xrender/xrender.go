// Package xrender implements the software backend. Windows are composed
// with the X Render extension into a back buffer pixmap that is copied
// to the target on present.
package xrender

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

// ErrNoFormat is returned when the server has no picture format for a
// visual or depth.
var ErrNoFormat = errors.New("xrender: no picture format")

// Backend composes through X Render.
type Backend struct {
	backend.DefaultPredicates

	srv    Server
	logger *slog.Logger

	format   render.Pictformat
	target   render.Picture
	back     xproto.Pixmap
	backPict render.Picture
	width    int
	height   int

	wins map[*winData]struct{}
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Clearer = (*Backend)(nil)
	_ backend.Resizer = (*Backend)(nil)
)

type winData struct {
	pict      render.Picture
	pixmap    xproto.Pixmap
	ownPixmap bool
	argb      bool
}

// New sets up the target and back buffer pictures on s. On error
// everything created so far has been freed.
func New(s *session.Session, srv Server) (*Backend, error) {
	b := &Backend{
		srv:    srv,
		logger: s.Log().With("backend", "xrender"),
		wins:   make(map[*winData]struct{}),
	}
	if err := b.init(s); err != nil {
		b.logger.Error("initialisation failed", "error", err)
		b.Deinit(s)
		return nil, err
	}
	return b, nil
}

func (b *Backend) init(s *session.Session) error {
	format, ok := b.srv.FormatForVisual(s.Visual)
	if !ok {
		return fmt.Errorf("%w: visual %#x", ErrNoFormat, s.Visual)
	}
	b.format = format

	target, err := b.srv.CreatePicture(xproto.Drawable(s.Target()), format)
	if err != nil {
		return fmt.Errorf("target picture: %w", err)
	}
	b.target = target

	back, err := b.srv.CreatePixmap(s.Depth, xproto.Drawable(s.Root), s.RootWidth, s.RootHeight)
	if err != nil {
		return fmt.Errorf("back buffer: %w", err)
	}
	b.back = back

	backPict, err := b.srv.CreatePicture(xproto.Drawable(back), format)
	if err != nil {
		return fmt.Errorf("back buffer picture: %w", err)
	}
	b.backPict = backPict
	b.width, b.height = s.RootWidth, s.RootHeight

	b.Clear(s, region.New(region.XYWH(0, 0, s.RootWidth, s.RootHeight)))
	b.logger.Info("initialised", "width", b.width, "height", b.height)
	return nil
}

// Resize implements backend.Resizer. The back buffer is recreated at the
// new root size; on error the old one stays in use.
func (b *Backend) Resize(s *session.Session) error {
	if s.RootWidth == b.width && s.RootHeight == b.height {
		return nil
	}
	back, err := b.srv.CreatePixmap(s.Depth, xproto.Drawable(s.Root), s.RootWidth, s.RootHeight)
	if err != nil {
		return fmt.Errorf("back buffer: %w", err)
	}
	backPict, err := b.srv.CreatePicture(xproto.Drawable(back), b.format)
	if err != nil {
		b.srv.FreePixmap(back)
		return fmt.Errorf("back buffer picture: %w", err)
	}

	b.srv.FreePicture(b.backPict)
	b.srv.FreePixmap(b.back)
	b.back, b.backPict = back, backPict
	b.width, b.height = s.RootWidth, s.RootHeight
	b.Clear(s, region.New(region.XYWH(0, 0, s.RootWidth, s.RootHeight)))
	b.logger.Info("back buffer resized", "width", b.width, "height", b.height)
	return nil
}

// Deinit implements backend.Backend.
func (b *Backend) Deinit(s *session.Session) {
	for wd := range b.wins {
		b.releaseWinData(s, wd)
	}
	if b.backPict != 0 {
		b.srv.FreePicture(b.backPict)
		b.backPict = 0
	}
	if b.back != 0 {
		b.srv.FreePixmap(b.back)
		b.back = 0
	}
	if b.target != 0 {
		b.srv.FreePicture(b.target)
		b.target = 0
	}
}

// PrepareWin implements backend.Backend.
func (b *Backend) PrepareWin(s *session.Session, w *session.Window) (backend.WinData, error) {
	format, ok := b.srv.FormatForVisual(w.Visual)
	if w.Visual == 0 || !ok {
		format, ok = b.srv.FormatForDepth(w.Depth)
	}
	if !ok {
		b.logger.Error("no picture format for window", "visual", w.Visual, "depth", w.Depth)
		return nil, fmt.Errorf("%w: visual %#x depth %d", ErrNoFormat, w.Visual, w.Depth)
	}

	wd := &winData{argb: w.HasAlpha()}
	if s.HasNamePixmap {
		p, err := s.Pixmaps.NameWindowPixmap(w.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to name pixmap of window %#x: %w", w.ID, err)
		}
		wd.pixmap, wd.ownPixmap = p, true
	} else {
		wd.pixmap = xproto.Pixmap(w.ID)
	}

	pict, err := b.srv.CreatePicture(xproto.Drawable(wd.pixmap), format)
	if err != nil {
		b.logger.Error("failed to prepare window", "window", w.ID, "error", err)
		b.releaseWinData(s, wd)
		return nil, fmt.Errorf("picture for window %#x: %w", w.ID, err)
	}
	wd.pict = pict
	b.wins[wd] = struct{}{}
	return wd, nil
}

// RenderWin implements backend.Backend. A picture tracks its pixmap, so
// there is nothing to refresh.
func (b *Backend) RenderWin(*session.Session, *session.Window, backend.WinData, region.Region) {}

// Compose implements backend.Backend.
func (b *Backend) Compose(s *session.Session, w *session.Window, data backend.WinData, dstX, dstY int, clip region.Region) {
	wd, ok := data.(*winData)
	if !ok || wd == nil || wd.pict == 0 {
		return
	}
	width, height := w.WidthB(), w.HeightB()
	visible := clip.IntersectRect(region.XYWH(dstX, dstY, width, height))
	if visible.Empty() {
		return
	}

	op := byte(render.PictOpSrc)
	if wd.argb {
		op = render.PictOpOver
	}
	b.srv.SetClip(b.backPict, rectangles(visible))
	b.srv.Composite(op, wd.pict, b.backPict, 0, 0, dstX, dstY, width, height)
	b.srv.SetClip(b.backPict, nil)
}

// Clear implements backend.Clearer.
func (b *Backend) Clear(s *session.Session, clip region.Region) {
	if clip.Empty() {
		return
	}
	b.srv.Fill(render.PictOpSrc, b.backPict, render.Color{Alpha: 0xffff}, rectangles(clip))
}

// Present implements backend.Backend.
func (b *Backend) Present(s *session.Session) {
	b.srv.Composite(render.PictOpSrc, b.backPict, b.target, 0, 0, 0, 0, b.width, b.height)
}

// ReleaseWin implements backend.Backend.
func (b *Backend) ReleaseWin(s *session.Session, w *session.Window, data backend.WinData) {
	wd, ok := data.(*winData)
	if !ok || wd == nil {
		return
	}
	b.releaseWinData(s, wd)
}

func (b *Backend) releaseWinData(s *session.Session, wd *winData) {
	if wd.pict != 0 {
		b.srv.FreePicture(wd.pict)
		wd.pict = 0
	}
	if wd.ownPixmap {
		s.Pixmaps.FreePixmap(wd.pixmap)
		wd.ownPixmap = false
	}
	wd.pixmap = 0
	delete(b.wins, wd)
}

// BufferAge implements backend.Backend. The back buffer always holds the
// previous frame.
func (b *Backend) BufferAge(*session.Session) int { return 1 }

// MaxBufferAge implements backend.Backend.
func (b *Backend) MaxBufferAge() int { return 1 }

func rectangles(r region.Region) []xproto.Rectangle {
	rects := r.Rects()
	out := make([]xproto.Rectangle, 0, len(rects))
	for _, rc := range rects {
		out = append(out, xproto.Rectangle{
			X:      int16(rc.X1),
			Y:      int16(rc.Y1),
			Width:  uint16(rc.Width()),
			Height: uint16(rc.Height()),
		})
	}
	return out
}
