package glx

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/backend/gl"
	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

// winData binds one window's pixmap to a texture. texture.Texture is
// non-zero exactly when glxPixmap is.
type winData struct {
	texture   gl.Texture
	glxPixmap Pixmap
	pixmap    xproto.Pixmap
	// ownPixmap is set when pixmap was named for this binding rather than
	// being the window id itself.
	ownPixmap bool
}

// textureTarget picks the GL target for a config, see the
// GLX_EXT_texture_from_pixmap description of BIND_TO_TEXTURE_TARGETS.
func textureTarget(targets int, npot bool) int {
	switch {
	case targets&Texture2DBitEXT != 0 && npot:
		return Texture2DEXT
	case targets&TextureRectangleBitEXT != 0:
		return TextureRectangleEXT
	case targets&Texture2DBitEXT == 0:
		return TextureRectangleEXT
	default:
		return Texture2DEXT
	}
}

// PrepareWin implements backend.Backend.
func (b *Backend) PrepareWin(s *session.Session, w *session.Window) (backend.WinData, error) {
	if w.Depth < 0 || w.Depth > MaxDepth {
		b.logger.Error("requested depth out of range", "depth", w.Depth, "max", MaxDepth)
		return nil, fmt.Errorf("%w: %d", ErrDepthUnsupported, w.Depth)
	}
	cfg, ok := b.fbconfigs.get(w.Depth)
	if !ok {
		b.logger.Error("no fbconfig for requested depth", "depth", w.Depth)
		return nil, fmt.Errorf("%w: no fbconfig for depth %d", ErrDepthUnsupported, w.Depth)
	}

	tgt := textureTarget(cfg.textureTargets, b.cap.NonPowerOfTwoTexture)
	b.logger.Debug("preparing window",
		"window", w.ID,
		"depth", w.Depth,
		"target", fmt.Sprintf("%#x", tgt),
		"rgba", cfg.textureFormat == TextureFormatRGBAEXT)

	wd := &winData{
		texture: gl.Texture{
			Target:    gl.Texture2D,
			YInverted: cfg.yInverted,
		},
	}
	if tgt == TextureRectangleEXT {
		wd.texture.Target = gl.TextureRectangle
	}

	if err := b.bindWinData(s, w, cfg, tgt, wd); err != nil {
		b.logger.Error("failed to prepare window", "window", w.ID, "error", err)
		b.releaseWinData(s, wd)
		return nil, err
	}
	b.wins[wd] = struct{}{}
	return wd, nil
}

func (b *Backend) bindWinData(s *session.Session, w *session.Window, cfg *fbConfig, tgt int, wd *winData) error {
	if s.HasNamePixmap {
		p, err := s.Pixmaps.NameWindowPixmap(w.ID)
		if err != nil {
			return fmt.Errorf("failed to name pixmap of window %#x: %w", w.ID, err)
		}
		wd.pixmap = p
		wd.ownPixmap = p != 0
	} else {
		wd.pixmap = xproto.Pixmap(w.ID)
	}
	if wd.pixmap == 0 {
		return fmt.Errorf("%w: no pixmap for window %#x", ErrAllocation, w.ID)
	}

	attrs := []int{
		TextureFormatEXT, cfg.textureFormat,
		TextureTargetEXT, tgt,
	}
	glxPixmap, err := b.drv.CreatePixmap(cfg.cfg, wd.pixmap, attrs)
	if err != nil {
		return fmt.Errorf("%w: glx pixmap for window %#x: %w", ErrAllocation, w.ID, err)
	}
	if glxPixmap == 0 {
		return fmt.Errorf("%w: glx pixmap for window %#x", ErrAllocation, w.ID)
	}

	tex := b.gl.GenTexture()
	if tex == 0 {
		b.drv.DestroyPixmap(glxPixmap)
		return fmt.Errorf("%w: texture for window %#x", ErrAllocation, w.ID)
	}
	target := wd.texture.Target
	b.gl.BindTexture(target, tex)
	b.gl.TexParameteri(target, gl.TextureMinFilter, gl.Nearest)
	b.gl.TexParameteri(target, gl.TextureMagFilter, gl.Nearest)
	b.gl.TexParameteri(target, gl.TextureWrapS, gl.ClampToEdge)
	b.gl.TexParameteri(target, gl.TextureWrapT, gl.ClampToEdge)
	b.gl.BindTexture(target, 0)

	wd.glxPixmap = glxPixmap
	wd.texture.Texture = tex
	wd.texture.Width = w.WidthB()
	wd.texture.Height = w.HeightB()
	return nil
}

// RenderWin implements backend.Backend. Rebinding the image picks up the
// pixmap's current contents, so the dirty region is not needed.
func (b *Backend) RenderWin(s *session.Session, w *session.Window, data backend.WinData, dirty region.Region) {
	wd, ok := data.(*winData)
	if !ok || wd == nil || wd.texture.Texture == 0 {
		return
	}
	b.gl.BindTexture(wd.texture.Target, wd.texture.Texture)
	b.texImage.Bind(wd.glxPixmap, FrontLeftEXT)
	b.gl.BindTexture(wd.texture.Target, 0)
	_ = gl.CheckErr(b.gl, b.logger)
}

// ReleaseWin implements backend.Backend.
func (b *Backend) ReleaseWin(s *session.Session, w *session.Window, data backend.WinData) {
	wd, ok := data.(*winData)
	if !ok || wd == nil {
		return
	}
	b.releaseWinData(s, wd)
}

// releaseWinData tears a binding down: release the image before the GLX
// pixmap it is bound from is destroyed, then the texture, then the named
// pixmap.
func (b *Backend) releaseWinData(s *session.Session, wd *winData) {
	if wd.glxPixmap != 0 && wd.texture.Texture != 0 {
		b.gl.BindTexture(wd.texture.Target, wd.texture.Texture)
		b.texImage.Release(wd.glxPixmap, FrontLeftEXT)
		b.gl.BindTexture(wd.texture.Target, 0)
	}
	if wd.glxPixmap != 0 {
		b.drv.DestroyPixmap(wd.glxPixmap)
		wd.glxPixmap = 0
	}
	if wd.texture.Texture != 0 {
		b.gl.DeleteTexture(wd.texture.Texture)
		wd.texture.Texture = 0
	}
	if wd.ownPixmap {
		s.Pixmaps.FreePixmap(wd.pixmap)
		wd.ownPixmap = false
	}
	wd.pixmap = 0
	delete(b.wins, wd)
	if b.gl != nil {
		_ = gl.CheckErr(b.gl, b.logger)
	}
}

// Compose implements backend.Backend.
func (b *Backend) Compose(s *session.Session, w *session.Window, data backend.WinData, dstX, dstY int, clip region.Region) {
	wd, ok := data.(*winData)
	if !ok || wd == nil {
		return
	}
	// X has a top-left origin and GL a bottom-left one.
	flipped := region.YFlip(clip, s.RootHeight)

	// GL wants the bottom-left corner of the destination.
	gl.Compose(b.gl, &wd.texture, 0, 0,
		dstX, s.RootHeight-dstY-w.HeightB(), w.WidthB(), w.HeightB(),
		0, 1, true, false, flipped, &b.winShader)
}

// Present implements backend.Backend.
func (b *Backend) Present(s *session.Session) {
	b.drv.SwapBuffers(s.Target())
}

// BufferAge implements backend.Backend.
func (b *Backend) BufferAge(s *session.Session) int {
	if s.Options.SwapMethod != session.SwapBufferAge {
		return -1
	}
	age, err := b.drv.QueryDrawable(s.Target(), BackBufferAgeEXT)
	if err != nil {
		b.logger.Debug("failed to query buffer age", "error", err)
		return -1
	}
	// Some drivers report 0 for both "new" and "unknown".
	if age == 0 || age > MaxBufferAge {
		return -1
	}
	return int(age)
}

// Clear implements backend.Clearer.
func (b *Backend) Clear(s *session.Session, clip region.Region) {
	gl.Fill(b.gl, region.YFlip(clip, s.RootHeight))
}

// Resize implements backend.Resizer.
func (b *Backend) Resize(s *session.Session) error {
	gl.Resize(b.gl, s.RootWidth, s.RootHeight)
	return gl.CheckErr(b.gl, b.logger)
}
