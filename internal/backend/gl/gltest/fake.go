// Package gltest provides a recording implementation of gl.GL for tests.
package gltest

import (
	"github.com/1broseidon/glaze/internal/backend/gl"
)

// Vertex is one vertex submitted between Begin and End.
type Vertex struct {
	S, T    float32
	X, Y, Z int32
}

// Fake records GL calls and tracks object lifetimes. It is not safe for
// concurrent use, like a real GL context.
type Fake struct {
	Extensions  string
	StencilBits int32

	FailGenTexture bool
	FailCompile    bool
	FailLink       bool
	// PendingErrors are returned by GetError, first to last.
	PendingErrors []uint32

	Enabled       map[uint32]bool
	DepthMaskFlag bool
	TexEnvMode    int32
	BlendFactors  [2]uint32
	ClearColorV   [4]float32
	StencilMaskV  uint32
	StencilFuncV  [3]int64
	Cleared       []uint32
	ColorV        [4]float32
	ViewportV     [4]int32
	OrthoV        [6]float64

	// TexParams holds parameters per texture name.
	TexParams map[uint32]map[uint32]int32
	// Bound is the texture bound per target.
	Bound map[uint32]uint32

	Program  uint32
	Uniforms map[int32]float64

	Quads     int
	inBegin   bool
	Vertices  []Vertex
	lastTexST [2]float32

	nextName uint32
	textures map[uint32]bool
	shaders  map[uint32]bool
	programs map[uint32]bool
}

var _ gl.GL = (*Fake)(nil)

// New returns a fake with the given extension string and an 8-bit stencil.
func New(extensions string) *Fake {
	return &Fake{
		Extensions:    extensions,
		StencilBits:   8,
		Enabled:       make(map[uint32]bool),
		DepthMaskFlag: true,
		TexParams:     make(map[uint32]map[uint32]int32),
		Bound:         make(map[uint32]uint32),
		Uniforms:      make(map[int32]float64),
		textures:      make(map[uint32]bool),
		shaders:       make(map[uint32]bool),
		programs:      make(map[uint32]bool),
	}
}

func (f *Fake) name() uint32 {
	f.nextName++
	return f.nextName
}

// LiveTextures returns the number of textures not yet deleted.
func (f *Fake) LiveTextures() int { return len(f.textures) }

// LiveShaders returns the number of shaders not yet deleted.
func (f *Fake) LiveShaders() int { return len(f.shaders) }

// LivePrograms returns the number of programs not yet deleted.
func (f *Fake) LivePrograms() int { return len(f.programs) }

// IsTexture reports whether tex is a live texture name.
func (f *Fake) IsTexture(tex uint32) bool { return f.textures[tex] }

func (f *Fake) GetString(name uint32) string {
	switch name {
	case gl.Extensions:
		return f.Extensions
	case gl.Vendor:
		return "glaze"
	case gl.Renderer:
		return "fake"
	case gl.Version:
		return "2.1"
	}
	return ""
}

func (f *Fake) GetIntegerv(pname uint32) int32 {
	if pname == gl.StencilBits {
		return f.StencilBits
	}
	return 0
}

func (f *Fake) GetError() uint32 {
	if len(f.PendingErrors) == 0 {
		return gl.NoError
	}
	code := f.PendingErrors[0]
	f.PendingErrors = f.PendingErrors[1:]
	return code
}

func (f *Fake) GenTexture() uint32 {
	if f.FailGenTexture {
		return 0
	}
	tex := f.name()
	f.textures[tex] = true
	return tex
}

func (f *Fake) DeleteTexture(tex uint32) {
	delete(f.textures, tex)
	delete(f.TexParams, tex)
}

func (f *Fake) BindTexture(target, tex uint32) {
	f.Bound[target] = tex
}

func (f *Fake) TexParameteri(target, pname uint32, param int32) {
	tex := f.Bound[target]
	if f.TexParams[tex] == nil {
		f.TexParams[tex] = make(map[uint32]int32)
	}
	f.TexParams[tex][pname] = param
}

func (f *Fake) TexEnvi(target, pname uint32, param int32) {
	if target == gl.TextureEnv && pname == gl.TextureEnvMode {
		f.TexEnvMode = param
	}
}

func (f *Fake) Enable(capability uint32)  { f.Enabled[capability] = true }
func (f *Fake) Disable(capability uint32) { f.Enabled[capability] = false }
func (f *Fake) DepthMask(flag bool)       { f.DepthMaskFlag = flag }

func (f *Fake) BlendFunc(sfactor, dfactor uint32) {
	f.BlendFactors = [2]uint32{sfactor, dfactor}
}

func (f *Fake) Clear(mask uint32) { f.Cleared = append(f.Cleared, mask) }

func (f *Fake) ClearColor(r, g, b, a float32) { f.ClearColorV = [4]float32{r, g, b, a} }
func (f *Fake) StencilMask(mask uint32)       { f.StencilMaskV = mask }

func (f *Fake) StencilFunc(fn uint32, ref int32, mask uint32) {
	f.StencilFuncV = [3]int64{int64(fn), int64(ref), int64(mask)}
}

func (f *Fake) Color4f(r, g, b, a float32) { f.ColorV = [4]float32{r, g, b, a} }

func (f *Fake) Viewport(x, y, width, height int32) {
	f.ViewportV = [4]int32{x, y, width, height}
}

func (f *Fake) MatrixMode(uint32) {}
func (f *Fake) LoadIdentity()     {}

func (f *Fake) Ortho(left, right, bottom, top, near, far float64) {
	f.OrthoV = [6]float64{left, right, bottom, top, near, far}
}

func (f *Fake) Begin(mode uint32) {
	f.inBegin = true
}

func (f *Fake) End() {
	f.inBegin = false
	f.Quads = len(f.Vertices) / 4
}

func (f *Fake) TexCoord2f(s, t float32) { f.lastTexST = [2]float32{s, t} }

func (f *Fake) Vertex3i(x, y, z int32) {
	f.Vertices = append(f.Vertices, Vertex{S: f.lastTexST[0], T: f.lastTexST[1], X: x, Y: y, Z: z})
}

func (f *Fake) CreateShader(uint32) uint32 {
	s := f.name()
	f.shaders[s] = true
	return s
}

func (f *Fake) ShaderSource(uint32, string) {}
func (f *Fake) CompileShader(uint32)        {}

func (f *Fake) GetShaderiv(shader, pname uint32) int32 {
	if pname == gl.CompileStatus && f.FailCompile {
		return 0
	}
	return 1
}

func (f *Fake) GetShaderInfoLog(uint32) string { return "0:1(1): error: syntax error\n" }
func (f *Fake) DeleteShader(shader uint32)     { delete(f.shaders, shader) }

func (f *Fake) CreateProgram() uint32 {
	p := f.name()
	f.programs[p] = true
	return p
}

func (f *Fake) AttachShader(uint32, uint32) {}
func (f *Fake) LinkProgram(uint32)          {}

func (f *Fake) GetProgramiv(prog, pname uint32) int32 {
	if pname == gl.LinkStatus && f.FailLink {
		return 0
	}
	return 1
}

func (f *Fake) GetProgramInfoLog(uint32) string { return "link error\n" }
func (f *Fake) DeleteProgram(prog uint32)       { delete(f.programs, prog) }
func (f *Fake) UseProgram(prog uint32)          { f.Program = prog }

// GetUniformLocation hands out stable locations per name.
func (f *Fake) GetUniformLocation(prog uint32, name string) int32 {
	switch name {
	case "opacity", "offset_x":
		return 0
	case "invert_color", "offset_y":
		return 1
	case "tex", "factor_center":
		return 2
	}
	return -1
}

func (f *Fake) Uniform1i(loc int32, v int32)   { f.Uniforms[loc] = float64(v) }
func (f *Fake) Uniform1f(loc int32, v float32) { f.Uniforms[loc] = float64(v) }
