//go:build cgo

package gl

import (
	"strings"

	gogl "github.com/go-gl/gl/v2.1/gl"
)

// InitNative loads the OpenGL entry points. A context must be current.
func InitNative() error {
	return gogl.Init()
}

// Native returns the GL implementation that calls the driver. InitNative
// must have succeeded first.
func Native() GL {
	return native{}
}

type native struct{}

func (native) GetString(name uint32) string {
	p := gogl.GetString(name)
	if p == nil {
		return ""
	}
	return gogl.GoStr(p)
}

func (native) GetIntegerv(pname uint32) int32 {
	var v int32
	gogl.GetIntegerv(pname, &v)
	return v
}

func (native) GetError() uint32 { return gogl.GetError() }

func (native) GenTexture() uint32 {
	var tex uint32
	gogl.GenTextures(1, &tex)
	return tex
}

func (native) DeleteTexture(tex uint32) { gogl.DeleteTextures(1, &tex) }

func (native) BindTexture(target, tex uint32) { gogl.BindTexture(target, tex) }

func (native) TexParameteri(target, pname uint32, param int32) {
	gogl.TexParameteri(target, pname, param)
}

func (native) TexEnvi(target, pname uint32, param int32) { gogl.TexEnvi(target, pname, param) }

func (native) Enable(capability uint32)          { gogl.Enable(capability) }
func (native) Disable(capability uint32)         { gogl.Disable(capability) }
func (native) DepthMask(flag bool)               { gogl.DepthMask(flag) }
func (native) BlendFunc(sfactor, dfactor uint32) { gogl.BlendFunc(sfactor, dfactor) }
func (native) Clear(mask uint32)                 { gogl.Clear(mask) }
func (native) ClearColor(r, g, b, a float32)     { gogl.ClearColor(r, g, b, a) }
func (native) StencilMask(mask uint32)           { gogl.StencilMask(mask) }

func (native) StencilFunc(fn uint32, ref int32, mask uint32) { gogl.StencilFunc(fn, ref, mask) }

func (native) Color4f(r, g, b, a float32) { gogl.Color4f(r, g, b, a) }

func (native) Viewport(x, y, width, height int32) { gogl.Viewport(x, y, width, height) }
func (native) MatrixMode(mode uint32)             { gogl.MatrixMode(mode) }
func (native) LoadIdentity()                      { gogl.LoadIdentity() }

func (native) Ortho(left, right, bottom, top, near, far float64) {
	gogl.Ortho(left, right, bottom, top, near, far)
}

func (native) Begin(mode uint32)       { gogl.Begin(mode) }
func (native) End()                    { gogl.End() }
func (native) TexCoord2f(s, t float32) { gogl.TexCoord2f(s, t) }
func (native) Vertex3i(x, y, z int32)  { gogl.Vertex3i(x, y, z) }

func (native) CreateShader(kind uint32) uint32 { return gogl.CreateShader(kind) }

func (native) ShaderSource(shader uint32, src string) {
	csources, free := gogl.Strs(src + "\x00")
	gogl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (native) CompileShader(shader uint32) { gogl.CompileShader(shader) }

func (native) GetShaderiv(shader, pname uint32) int32 {
	var v int32
	gogl.GetShaderiv(shader, pname, &v)
	return v
}

func (native) GetShaderInfoLog(shader uint32) string {
	var n int32
	gogl.GetShaderiv(shader, gogl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gogl.GetShaderInfoLog(shader, n, nil, gogl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (native) DeleteShader(shader uint32) { gogl.DeleteShader(shader) }
func (native) CreateProgram() uint32      { return gogl.CreateProgram() }

func (native) AttachShader(prog, shader uint32) { gogl.AttachShader(prog, shader) }
func (native) LinkProgram(prog uint32)          { gogl.LinkProgram(prog) }

func (native) GetProgramiv(prog, pname uint32) int32 {
	var v int32
	gogl.GetProgramiv(prog, pname, &v)
	return v
}

func (native) GetProgramInfoLog(prog uint32) string {
	var n int32
	gogl.GetProgramiv(prog, gogl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gogl.GetProgramInfoLog(prog, n, nil, gogl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (native) DeleteProgram(prog uint32) { gogl.DeleteProgram(prog) }
func (native) UseProgram(prog uint32)    { gogl.UseProgram(prog) }

func (native) GetUniformLocation(prog uint32, name string) int32 {
	return gogl.GetUniformLocation(prog, gogl.Str(name+"\x00"))
}

func (native) Uniform1i(loc int32, v int32)   { gogl.Uniform1i(loc, v) }
func (native) Uniform1f(loc int32, v float32) { gogl.Uniform1f(loc, v) }
