// Package glx implements the GPU backend: windows are bound to GL
// textures through GLX_EXT_texture_from_pixmap and composed with OpenGL
// onto a double-buffered GLX drawable.
package glx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/backend/gl"
	"github.com/1broseidon/glaze/internal/session"
)

// MaxBufferAge is the oldest back buffer age the backend reports. The
// value is empirical; ages above it are treated as unknown.
const MaxBufferAge = 5

var (
	ErrMissingExtension = errors.New("glx: required extension missing")
	ErrNoFBConfig       = errors.New("glx: no usable fbconfig")
	ErrDepthUnsupported = errors.New("glx: unsupported window depth")
	ErrAllocation       = errors.New("glx: resource allocation failed")
)

// Backend is the GLX backend state. It owns its driver, the GL context,
// every shader program and every window binding it handed out.
type Backend struct {
	backend.DefaultPredicates

	drv    Driver
	gl     gl.GL
	ctx    Context
	logger *slog.Logger

	cap         gl.Cap
	winShader   gl.WinShader
	blurShaders []gl.BlurShader
	fbconfigs   *fbConfigSet
	texImage    TexImageFuncs

	wins map[*winData]struct{}
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Resizer = (*Backend)(nil)
)

// New initialises the backend on s and takes ownership of drv. On error
// everything acquired so far, the driver included, has been released.
func New(s *session.Session, drv Driver) (*Backend, error) {
	b := &Backend{
		drv:       drv,
		logger:    s.Log().With("backend", "glx"),
		winShader: gl.WinShader{UnifmOpacity: -1, UnifmInvertColor: -1, UnifmTex: -1},
		wins:      make(map[*winData]struct{}),
	}
	if err := b.init(s); err != nil {
		b.logger.Error("initialisation failed", "error", err)
		b.Deinit(s)
		return nil, err
	}
	return b, nil
}

func (b *Backend) init(s *session.Session) error {
	if !b.drv.QueryExtension() {
		return fmt.Errorf("%w: GLX", ErrMissingExtension)
	}

	if v, err := b.drv.VisualConfig(s.Visual, UseGL); err != nil || v == 0 {
		return errors.New("glx: root visual is not a GL visual")
	}
	if v, err := b.drv.VisualConfig(s.Visual, DoubleBuffer); err != nil || v == 0 {
		return errors.New("glx: root visual is not a double buffered GL visual")
	}

	if !gl.ExtensionListHas(b.drv.ExtensionsString(), "GLX_EXT_texture_from_pixmap") {
		return fmt.Errorf("%w: GLX_EXT_texture_from_pixmap", ErrMissingExtension)
	}

	ctx, err := b.drv.CreateContext(s.Visual)
	if err != nil || ctx == 0 {
		return fmt.Errorf("glx: failed to create context: %w", errors.Join(ErrAllocation, err))
	}
	b.ctx = ctx
	if err := b.drv.MakeCurrent(s.Target(), b.ctx); err != nil {
		return fmt.Errorf("glx: failed to attach context: %w", err)
	}
	b.gl = b.drv.GL()

	// Region rectangles from the server may overlap; the stencil buffer
	// keeps each pixel painted at most once.
	if !s.Options.GLXNoStencil {
		if b.gl.GetIntegerv(gl.StencilBits) == 0 {
			return errors.New("glx: target window has no stencil buffer")
		}
	}

	// Needs a current context and must precede fbconfig selection.
	b.cap.NonPowerOfTwoTexture = gl.HasExtension(b.gl, "GL_ARB_texture_non_power_of_two")

	fns, err := b.drv.TexImageFuncs()
	if err != nil || fns.Bind == nil || fns.Release == nil {
		return fmt.Errorf("%w: glXBindTexImageEXT/glXReleaseTexImageEXT unavailable", ErrMissingExtension)
	}
	b.texImage = fns

	set, err := selectFBConfigs(b.drv, s.Depth, b.logger)
	if err != nil {
		return err
	}
	b.fbconfigs = set

	gl.Resize(b.gl, s.RootWidth, s.RootHeight)
	b.gl.Disable(gl.DepthTest)
	b.gl.DepthMask(false)
	b.gl.TexEnvi(gl.TextureEnv, gl.TextureEnvMode, gl.Replace)
	b.gl.Disable(gl.Blend)
	if !s.Options.GLXNoStencil {
		b.gl.Clear(gl.StencilBufferBit)
		b.gl.Disable(gl.StencilTest)
		b.gl.StencilMask(0x1)
		b.gl.StencilFunc(gl.Equal, 0x1, 0x1)
	}
	b.gl.ClearColor(0, 0, 0, 1)

	ws, err := gl.InitProgMain(b.gl, s.Options.WindowShader)
	if err != nil {
		return fmt.Errorf("glx: window shader: %w", err)
	}
	b.winShader = ws

	passes, err := gl.CreateBlurShaders(b.gl, s.Options.BlurKernels, b.cap)
	if err != nil {
		return fmt.Errorf("glx: %w", err)
	}
	b.blurShaders = passes

	b.logger.Info("initialised",
		"vendor", b.gl.GetString(gl.Vendor),
		"renderer", b.gl.GetString(gl.Renderer),
		"npot", b.cap.NonPowerOfTwoTexture,
		"blur_passes", len(b.blurShaders))
	_ = gl.CheckErr(b.gl, b.logger)
	return nil
}

// Deinit releases the backend. It is safe on a partially initialised
// backend and on one already deinitialised.
func (b *Backend) Deinit(s *session.Session) {
	for wd := range b.wins {
		b.releaseWinData(s, wd)
	}

	if b.gl != nil {
		gl.FreeBlurShaders(b.gl, b.blurShaders)
		gl.FreeProgMain(b.gl, &b.winShader)
		_ = gl.CheckErr(b.gl, b.logger)
	}
	b.blurShaders = nil
	b.fbconfigs = nil
	b.texImage = TexImageFuncs{}

	if b.drv == nil {
		return
	}
	if b.ctx != 0 {
		if err := b.drv.MakeCurrent(0, 0); err != nil {
			b.logger.Warn("failed to release context", "error", err)
		}
		b.drv.DestroyContext(b.ctx)
		b.ctx = 0
	}
	b.gl = nil
	b.drv.Close()
	b.drv = nil
}

// MaxBufferAge implements backend.Backend.
func (b *Backend) MaxBufferAge() int {
	return MaxBufferAge
}
