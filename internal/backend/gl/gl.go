// Package gl holds the OpenGL helpers shared by GL-based backends: the
// function table they draw through, shader programs, texture compositing
// and framebuffer sizing.
package gl

import (
	"fmt"
	"log/slog"
	"strings"
)

// Enumerants used by the backends. Values are from the OpenGL registry.
const (
	NoError = 0

	Quads = 0x0007

	Equal = 0x0202

	One              = 1
	SrcAlpha         = 0x0302
	OneMinusSrcAlpha = 0x0303

	DepthTest   = 0x0B71
	StencilTest = 0x0B90
	Blend       = 0x0BE2
	StencilBits = 0x0D57

	Texture2D        = 0x0DE1
	TextureRectangle = 0x84F5

	Vendor     = 0x1F00
	Renderer   = 0x1F01
	Version    = 0x1F02
	Extensions = 0x1F03

	Modelview  = 0x1700
	Projection = 0x1701

	Replace        = 0x1E01
	Modulate       = 0x2100
	TextureEnvMode = 0x2200
	TextureEnv     = 0x2300

	Nearest          = 0x2600
	TextureMagFilter = 0x2800
	TextureMinFilter = 0x2801
	TextureWrapS     = 0x2802
	TextureWrapT     = 0x2803
	ClampToEdge      = 0x812F

	StencilBufferBit = 0x00000400
	ColorBufferBit   = 0x00004000

	FragmentShader = 0x8B30
	CompileStatus  = 0x8B81
	LinkStatus     = 0x8B82
)

// GL is the subset of the OpenGL 2.1 API the backends use. The native
// implementation forwards to the driver; tests record the calls.
type GL interface {
	GetString(name uint32) string
	GetIntegerv(pname uint32) int32
	GetError() uint32

	GenTexture() uint32
	DeleteTexture(tex uint32)
	BindTexture(target, tex uint32)
	TexParameteri(target, pname uint32, param int32)
	TexEnvi(target, pname uint32, param int32)

	Enable(capability uint32)
	Disable(capability uint32)
	DepthMask(flag bool)
	BlendFunc(sfactor, dfactor uint32)
	Clear(mask uint32)
	ClearColor(r, g, b, a float32)
	StencilMask(mask uint32)
	StencilFunc(fn uint32, ref int32, mask uint32)
	Color4f(r, g, b, a float32)

	Viewport(x, y, width, height int32)
	MatrixMode(mode uint32)
	LoadIdentity()
	Ortho(left, right, bottom, top, near, far float64)

	Begin(mode uint32)
	End()
	TexCoord2f(s, t float32)
	Vertex3i(x, y, z int32)

	CreateShader(kind uint32) uint32
	ShaderSource(shader uint32, src string)
	CompileShader(shader uint32)
	GetShaderiv(shader, pname uint32) int32
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(prog, shader uint32)
	LinkProgram(prog uint32)
	GetProgramiv(prog, pname uint32) int32
	GetProgramInfoLog(prog uint32) string
	DeleteProgram(prog uint32)
	UseProgram(prog uint32)
	GetUniformLocation(prog uint32, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
}

// Cap records optional driver capabilities.
type Cap struct {
	NonPowerOfTwoTexture bool
}

// Texture is a GL texture bound to window contents.
type Texture struct {
	Texture   uint32
	Target    uint32
	Width     int
	Height    int
	YInverted bool
}

// ExtensionListHas reports whether name appears as a whole entry in a
// space separated extension list. A plain substring search would accept
// "GL_EXT_foo" inside "GL_EXT_foo_bar".
func ExtensionListHas(list, name string) bool {
	if name == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(list[offset:], name)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(name)
		startOK := start == 0 || list[start-1] == ' '
		endOK := end == len(list) || list[end] == ' '
		if startOK && endOK {
			return true
		}
		offset = start + 1
	}
}

// HasExtension reports whether the current context advertises name.
func HasExtension(g GL, name string) bool {
	return ExtensionListHas(g.GetString(Extensions), name)
}

// CheckErr drains the GL error queue, logging each error. It returns the
// first error seen.
func CheckErr(g GL, logger *slog.Logger) error {
	var first error
	for code := g.GetError(); code != NoError; code = g.GetError() {
		err := fmt.Errorf("gl error %#x", code)
		logger.Error("GL error", "code", fmt.Sprintf("%#x", code))
		if first == nil {
			first = err
		}
	}
	return first
}

// Resize sets the viewport and an orthographic projection mapping GL
// units to pixels with a bottom-left origin.
func Resize(g GL, width, height int) {
	g.Viewport(0, 0, int32(width), int32(height))

	g.MatrixMode(Projection)
	g.LoadIdentity()
	g.Ortho(0, float64(width), 0, float64(height), -1000.0, 1000.0)

	g.MatrixMode(Modelview)
	g.LoadIdentity()
}
