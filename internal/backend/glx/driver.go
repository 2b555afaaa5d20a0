package glx

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/backend/gl"
)

// GLX tokens from glx.h and GLX_EXT_texture_from_pixmap.
const (
	UseGL        = 1
	BufferSize   = 2
	DoubleBuffer = 5
	RedSize      = 8
	AlphaSize    = 11
	DepthSize    = 12
	StencilSize  = 13
	Samples      = 100001

	BindToTextureRGBEXT     = 0x20D0
	BindToTextureRGBAEXT    = 0x20D1
	BindToMipmapTextureEXT  = 0x20D2
	BindToTextureTargetsEXT = 0x20D3
	YInvertedEXT            = 0x20D4
	TextureFormatEXT        = 0x20D5
	TextureTargetEXT        = 0x20D6
	TextureFormatRGBEXT     = 0x20D9
	TextureFormatRGBAEXT    = 0x20DA
	Texture2DEXT            = 0x20DC
	TextureRectangleEXT     = 0x20DD
	FrontLeftEXT            = 0x20DE

	Texture1DBitEXT        = 0x00000001
	Texture2DBitEXT        = 0x00000002
	TextureRectangleBitEXT = 0x00000004

	BackBufferAgeEXT = 0x20F4
)

// FBConfig is an opaque native framebuffer configuration handle.
type FBConfig uintptr

// Context is an opaque native rendering context handle.
type Context uintptr

// Pixmap is a GLX pixmap id.
type Pixmap uint32

// TexImageFuncs are the dynamically resolved texture-from-pixmap entry
// points.
type TexImageFuncs struct {
	Bind    func(p Pixmap, buffer int)
	Release func(p Pixmap, buffer int)
}

// Driver is the native GLX surface the backend is written against. Calls
// that fail report an error or a zero handle; none of them panic.
type Driver interface {
	// QueryExtension reports whether the server supports GLX at all.
	QueryExtension() bool
	// ExtensionsString returns the space separated GLX extension list.
	ExtensionsString() string
	// VisualConfig reads a glXGetConfig attribute of an X visual.
	VisualConfig(visual xproto.Visualid, attr int) (int, error)

	CreateContext(visual xproto.Visualid) (Context, error)
	// MakeCurrent binds ctx to drawable; a zero ctx releases the current
	// context.
	MakeCurrent(drawable xproto.Window, ctx Context) error
	DestroyContext(ctx Context)

	FBConfigs() []FBConfig
	FBConfigAttrib(cfg FBConfig, attr int) (int, error)
	// VisualDepth returns the depth of the X visual matching cfg; ok is
	// false when the config has no visual.
	VisualDepth(cfg FBConfig) (depth int, ok bool)

	CreatePixmap(cfg FBConfig, pixmap xproto.Pixmap, attrs []int) (Pixmap, error)
	DestroyPixmap(p Pixmap)
	TexImageFuncs() (TexImageFuncs, error)

	SwapBuffers(drawable xproto.Window)
	QueryDrawable(drawable xproto.Window, attr int) (uint32, error)

	// GL returns the function table of the current context.
	GL() gl.GL
	// Close releases the driver's own connection.
	Close()
}
