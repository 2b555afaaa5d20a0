package glx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend/gl"
	"github.com/1broseidon/glaze/internal/backend/gl/gltest"
	"github.com/1broseidon/glaze/internal/session"
)

type fakeConfig struct {
	attrs       map[int]int
	failAttrs   map[int]bool
	visualDepth int
	noVisual    bool
}

// rgbaConfig is a typical 32-bit ARGB config that binds as RGB and RGBA.
func rgbaConfig() fakeConfig {
	return fakeConfig{
		attrs: map[int]int{
			BufferSize:              32,
			AlphaSize:               8,
			RedSize:                 8,
			BindToTextureRGBEXT:     1,
			BindToTextureRGBAEXT:    1,
			BindToTextureTargetsEXT: Texture2DBitEXT | TextureRectangleBitEXT,
			YInvertedEXT:            1,
		},
		visualDepth: 32,
	}
}

// rgbConfig is a 24-bit config without alpha.
func rgbConfig() fakeConfig {
	return fakeConfig{
		attrs: map[int]int{
			BufferSize:              24,
			AlphaSize:               0,
			RedSize:                 8,
			BindToTextureRGBEXT:     1,
			BindToTextureTargetsEXT: Texture2DBitEXT | TextureRectangleBitEXT,
		},
		visualDepth: 24,
	}
}

type fakeDriver struct {
	gl *gltest.Fake

	noGLX             bool
	extensions        string
	visualAttrs       map[int]int
	configs           []fakeConfig
	failCreateContext bool
	failMakeCurrent   bool
	noTexImage        bool
	failCreatePixmap  bool

	age    uint32
	ageErr error

	nextID   uint32
	contexts map[Context]bool
	current  Context
	pixmaps  map[Pixmap]xproto.Pixmap
	// bound counts image binds per GLX pixmap that were not released.
	bound map[Pixmap]bool
	binds int

	destroyedWhileBound bool
	swaps               []xproto.Window
	ageQueries          int
	closed              bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		gl:          gltest.New("GL_ARB_texture_non_power_of_two GL_ARB_shader_objects"),
		extensions:  "GLX_ARB_create_context GLX_EXT_texture_from_pixmap GLX_EXT_buffer_age",
		visualAttrs: map[int]int{UseGL: 1, DoubleBuffer: 1},
		configs:     []fakeConfig{rgbConfig(), rgbaConfig()},
		contexts:    make(map[Context]bool),
		pixmaps:     make(map[Pixmap]xproto.Pixmap),
		bound:       make(map[Pixmap]bool),
	}
}

var _ Driver = (*fakeDriver)(nil)

func (d *fakeDriver) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *fakeDriver) QueryExtension() bool     { return !d.noGLX }
func (d *fakeDriver) ExtensionsString() string { return d.extensions }

func (d *fakeDriver) VisualConfig(visual xproto.Visualid, attr int) (int, error) {
	v, ok := d.visualAttrs[attr]
	if !ok {
		return 0, errors.New("bad attribute")
	}
	return v, nil
}

func (d *fakeDriver) CreateContext(xproto.Visualid) (Context, error) {
	if d.failCreateContext {
		return 0, errors.New("BadAlloc")
	}
	ctx := Context(d.id())
	d.contexts[ctx] = true
	return ctx, nil
}

func (d *fakeDriver) MakeCurrent(drawable xproto.Window, ctx Context) error {
	if ctx != 0 && d.failMakeCurrent {
		return errors.New("BadMatch")
	}
	d.current = ctx
	return nil
}

func (d *fakeDriver) DestroyContext(ctx Context) { delete(d.contexts, ctx) }

func (d *fakeDriver) FBConfigs() []FBConfig {
	out := make([]FBConfig, len(d.configs))
	for i := range d.configs {
		out[i] = FBConfig(i + 1)
	}
	return out
}

func (d *fakeDriver) config(cfg FBConfig) *fakeConfig {
	return &d.configs[int(cfg)-1]
}

func (d *fakeDriver) FBConfigAttrib(cfg FBConfig, attr int) (int, error) {
	c := d.config(cfg)
	if c.failAttrs[attr] {
		return 0, fmt.Errorf("attribute %#x unavailable", attr)
	}
	v, ok := c.attrs[attr]
	if !ok {
		return 0, nil
	}
	return v, nil
}

func (d *fakeDriver) VisualDepth(cfg FBConfig) (int, bool) {
	c := d.config(cfg)
	if c.noVisual {
		return 0, false
	}
	return c.visualDepth, true
}

func (d *fakeDriver) CreatePixmap(cfg FBConfig, pixmap xproto.Pixmap, attrs []int) (Pixmap, error) {
	if d.failCreatePixmap {
		return 0, errors.New("BadPixmap")
	}
	p := Pixmap(d.id())
	d.pixmaps[p] = pixmap
	return p, nil
}

func (d *fakeDriver) DestroyPixmap(p Pixmap) {
	if d.bound[p] {
		d.destroyedWhileBound = true
	}
	delete(d.pixmaps, p)
}

func (d *fakeDriver) TexImageFuncs() (TexImageFuncs, error) {
	if d.noTexImage {
		return TexImageFuncs{}, errors.New("glXGetProcAddress returned NULL")
	}
	return TexImageFuncs{
		Bind: func(p Pixmap, buffer int) {
			d.binds++
			d.bound[p] = true
		},
		Release: func(p Pixmap, buffer int) {
			delete(d.bound, p)
		},
	}, nil
}

func (d *fakeDriver) SwapBuffers(drawable xproto.Window) {
	d.swaps = append(d.swaps, drawable)
}

func (d *fakeDriver) QueryDrawable(drawable xproto.Window, attr int) (uint32, error) {
	d.ageQueries++
	return d.age, d.ageErr
}

func (d *fakeDriver) GL() gl.GL { return d.gl }
func (d *fakeDriver) Close()    { d.closed = true }

// liveResources counts everything a backend may leak.
func (d *fakeDriver) liveResources() map[string]int {
	return map[string]int{
		"contexts": len(d.contexts),
		"pixmaps":  len(d.pixmaps),
		"bound":    len(d.bound),
		"textures": d.gl.LiveTextures(),
		"shaders":  d.gl.LiveShaders(),
		"programs": d.gl.LivePrograms(),
		"current":  int(d.current),
	}
}

type fakeNamer struct {
	next  xproto.Pixmap
	live  map[xproto.Pixmap]bool
	fail  bool
	calls int
}

func newFakeNamer() *fakeNamer {
	return &fakeNamer{next: 0x400000, live: make(map[xproto.Pixmap]bool)}
}

func (n *fakeNamer) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, error) {
	n.calls++
	if n.fail {
		return 0, errors.New("BadMatch")
	}
	n.next++
	n.live[n.next] = true
	return n.next, nil
}

func (n *fakeNamer) FreePixmap(p xproto.Pixmap) { delete(n.live, p) }

func testSession(namer *fakeNamer) *session.Session {
	return &session.Session{
		Root:          0x100,
		RootWidth:     1280,
		RootHeight:    800,
		Depth:         24,
		Visual:        0x21,
		HasNamePixmap: namer != nil,
		Pixmaps:       namer,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
