package xrender

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
)

// Server is the part of the X Render protocol the backend draws with.
type Server interface {
	// FormatForVisual returns the picture format of an X visual.
	FormatForVisual(visual xproto.Visualid) (render.Pictformat, bool)
	// FormatForDepth returns the direct-colour format for a window depth.
	FormatForDepth(depth int) (render.Pictformat, bool)

	CreatePixmap(depth int, drawable xproto.Drawable, width, height int) (xproto.Pixmap, error)
	FreePixmap(p xproto.Pixmap)
	CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error)
	FreePicture(p render.Picture)

	// SetClip restricts drawing to rects; a nil slice removes the clip.
	SetClip(p render.Picture, rects []xproto.Rectangle)
	Composite(op byte, src, dst render.Picture, srcX, srcY, dstX, dstY, width, height int)
	Fill(op byte, dst render.Picture, c render.Color, rects []xproto.Rectangle)
}

type xgbServer struct {
	conn     *xgb.Conn
	byVisual map[xproto.Visualid]render.Pictformat
	formats  []render.Pictforminfo
}

// NewServer initialises the RENDER extension on conn.
func NewServer(conn *xgb.Conn) (Server, error) {
	if err := render.Init(conn); err != nil {
		return nil, fmt.Errorf("xrender: render.Init failed: %w", err)
	}
	if _, err := render.QueryVersion(conn, 0, 11).Reply(); err != nil {
		return nil, fmt.Errorf("xrender: render.QueryVersion failed: %w", err)
	}
	reply, err := render.QueryPictFormats(conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("xrender: render.QueryPictFormats failed: %w", err)
	}

	s := &xgbServer{
		conn:     conn,
		byVisual: make(map[xproto.Visualid]render.Pictformat),
		formats:  reply.Formats,
	}
	for _, screen := range reply.Screens {
		for _, depth := range screen.Depths {
			for _, v := range depth.Visuals {
				s.byVisual[v.Visual] = v.Format
			}
		}
	}
	return s, nil
}

func (s *xgbServer) FormatForVisual(visual xproto.Visualid) (render.Pictformat, bool) {
	f, ok := s.byVisual[visual]
	return f, ok
}

func (s *xgbServer) FormatForDepth(depth int) (render.Pictformat, bool) {
	f, err := findPictformat(s.formats, depth)
	return f, err == nil
}

// findPictformat presumes little-endian BGRA.
func findPictformat(fs []render.Pictforminfo, depth int) (render.Pictformat, error) {
	want := render.Directformat{
		RedShift:   16,
		RedMask:    0xff,
		GreenShift: 8,
		GreenMask:  0xff,
		BlueShift:  0,
		BlueMask:   0xff,
		AlphaShift: 24,
		AlphaMask:  0xff,
	}
	if depth == 24 {
		want.AlphaShift = 0
		want.AlphaMask = 0x00
	}
	for _, f := range fs {
		if f.Type == render.PictTypeDirect && int(f.Depth) == depth && f.Direct == want {
			return f.Id, nil
		}
	}
	return 0, fmt.Errorf("xrender: no matching Pictformat for depth %d", depth)
}

func (s *xgbServer) CreatePixmap(depth int, drawable xproto.Drawable, width, height int) (xproto.Pixmap, error) {
	p, err := xproto.NewPixmapId(s.conn)
	if err != nil {
		return 0, fmt.Errorf("xrender: xproto.NewPixmapId failed: %w", err)
	}
	err = xproto.CreatePixmapChecked(s.conn, byte(depth), p, drawable, uint16(width), uint16(height)).Check()
	if err != nil {
		return 0, fmt.Errorf("xrender: xproto.CreatePixmap failed: %w", err)
	}
	return p, nil
}

func (s *xgbServer) FreePixmap(p xproto.Pixmap) {
	xproto.FreePixmap(s.conn, p)
}

func (s *xgbServer) CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error) {
	p, err := render.NewPictureId(s.conn)
	if err != nil {
		return 0, fmt.Errorf("xrender: render.NewPictureId failed: %w", err)
	}
	if err := render.CreatePictureChecked(s.conn, p, drawable, format, 0, nil).Check(); err != nil {
		return 0, fmt.Errorf("xrender: render.CreatePicture failed: %w", err)
	}
	return p, nil
}

func (s *xgbServer) FreePicture(p render.Picture) {
	render.FreePicture(s.conn, p)
}

func (s *xgbServer) SetClip(p render.Picture, rects []xproto.Rectangle) {
	if rects == nil {
		render.ChangePicture(s.conn, p, render.CpClipMask, []uint32{0})
		return
	}
	render.SetPictureClipRectangles(s.conn, p, 0, 0, rects)
}

func (s *xgbServer) Composite(op byte, src, dst render.Picture, srcX, srcY, dstX, dstY, width, height int) {
	render.Composite(s.conn, op, src, 0, dst,
		int16(srcX), int16(srcY), 0, 0, int16(dstX), int16(dstY),
		uint16(width), uint16(height))
}

func (s *xgbServer) Fill(op byte, dst render.Picture, c render.Color, rects []xproto.Rectangle) {
	render.FillRectangles(s.conn, op, dst, c, rects)
}
