package gl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/glaze/internal/session"
)

// MaxBlurPass is the number of blur kernels a backend keeps programs for.
const MaxBlurPass = 5

// WinShaderSource is the built-in window fragment shader. It samples a 2D
// texture, optionally inverts colour and scales alpha by opacity.
const WinShaderSource = `#version 110
uniform float opacity;
uniform bool invert_color;
uniform sampler2D tex;
void main() {
	vec4 c = texture2D(tex, gl_TexCoord[0].xy);
	if (invert_color)
		c = vec4(vec3(c.a, c.a, c.a) - c.rgb, c.a);
	c.a *= opacity;
	gl_FragColor = c;
}
`

// WinShader is the program used to paint window textures. Uniform
// locations are -1 when the program does not use them.
type WinShader struct {
	Prog             uint32
	UnifmOpacity     int32
	UnifmInvertColor int32
	UnifmTex         int32
}

// BlurShader is one convolution pass.
type BlurShader struct {
	FragShader        uint32
	Prog              uint32
	UnifmOffsetX      int32
	UnifmOffsetY      int32
	UnifmFactorCenter int32
}

// CreateShader compiles a shader of the given kind.
func CreateShader(g GL, kind uint32, src string) (uint32, error) {
	shader := g.CreateShader(kind)
	if shader == 0 {
		return 0, errors.New("failed to create shader")
	}
	g.ShaderSource(shader, src)
	g.CompileShader(shader)
	if g.GetShaderiv(shader, CompileStatus) == 0 {
		log := g.GetShaderInfoLog(shader)
		g.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %s", strings.TrimSpace(log))
	}
	return shader, nil
}

// CreateProgram links shaders into a program. The shaders stay owned by
// the caller.
func CreateProgram(g GL, shaders ...uint32) (uint32, error) {
	prog := g.CreateProgram()
	if prog == 0 {
		return 0, errors.New("failed to create program")
	}
	for _, s := range shaders {
		g.AttachShader(prog, s)
	}
	g.LinkProgram(prog)
	if g.GetProgramiv(prog, LinkStatus) == 0 {
		log := g.GetProgramInfoLog(prog)
		g.DeleteProgram(prog)
		return 0, fmt.Errorf("failed to link program: %s", strings.TrimSpace(log))
	}
	return prog, nil
}

// InitProgMain builds the window program from fragment shader source.
// An empty source selects WinShaderSource.
func InitProgMain(g GL, fragSrc string) (WinShader, error) {
	if fragSrc == "" {
		fragSrc = WinShaderSource
	}
	frag, err := CreateShader(g, FragmentShader, fragSrc)
	if err != nil {
		return WinShader{}, err
	}
	prog, err := CreateProgram(g, frag)
	// The linked program keeps the shader alive.
	g.DeleteShader(frag)
	if err != nil {
		return WinShader{}, err
	}
	return WinShader{
		Prog:             prog,
		UnifmOpacity:     g.GetUniformLocation(prog, "opacity"),
		UnifmInvertColor: g.GetUniformLocation(prog, "invert_color"),
		UnifmTex:         g.GetUniformLocation(prog, "tex"),
	}, nil
}

// FreeProgMain deletes the window program.
func FreeProgMain(g GL, ws *WinShader) {
	if ws.Prog != 0 {
		g.DeleteProgram(ws.Prog)
	}
	*ws = WinShader{UnifmOpacity: -1, UnifmInvertColor: -1, UnifmTex: -1}
}

// BlurShaderSource generates the fragment shader for a kernel. Zero
// weights and the centre element are skipped; the centre weight is
// supplied through the factor_center uniform.
func BlurShaderSource(k session.BlurKernel, c Cap) string {
	sampler, lookup, ext := "sampler2D", "texture2D", ""
	if !c.NonPowerOfTwoTexture {
		sampler, lookup = "sampler2DRect", "texture2DRect"
		ext = "#extension GL_ARB_texture_rectangle : require\n"
	}

	var b strings.Builder
	b.WriteString("#version 110\n")
	b.WriteString(ext)
	b.WriteString("uniform float offset_x;\n")
	b.WriteString("uniform float offset_y;\n")
	b.WriteString("uniform float factor_center;\n")
	fmt.Fprintf(&b, "uniform %s tex_scr;\n\n", sampler)
	b.WriteString("void main() {\n")
	b.WriteString("\tvec4 sum = vec4(0.0, 0.0, 0.0, 0.0);\n")

	sum := 0.0
	for j := 0; j < k.Height; j++ {
		for i := 0; i < k.Width; i++ {
			if j == k.Height/2 && i == k.Width/2 {
				continue
			}
			w := k.Weights[j*k.Width+i]
			if w == 0 {
				continue
			}
			sum += w
			fmt.Fprintf(&b, "\tsum += float(%s) * %s(tex_scr, vec2(gl_TexCoord[0].x + offset_x * float(%d), gl_TexCoord[0].y + offset_y * float(%d)));\n",
				formatFloat(w), lookup, i-k.Width/2, j-k.Height/2)
		}
	}

	fmt.Fprintf(&b, "\tsum += %s(tex_scr, vec2(gl_TexCoord[0].x, gl_TexCoord[0].y)) * factor_center;\n", lookup)
	fmt.Fprintf(&b, "\tgl_FragColor = sum / (factor_center + float(%s));\n", formatFloat(sum))
	b.WriteString("}\n")
	return b.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 7, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// CreateBlurShaders compiles one pass per kernel. At most MaxBlurPass
// kernels are accepted. On error every pass built so far is freed.
func CreateBlurShaders(g GL, kernels []session.BlurKernel, c Cap) ([]BlurShader, error) {
	if len(kernels) > MaxBlurPass {
		return nil, fmt.Errorf("too many blur kernels: %d (max %d)", len(kernels), MaxBlurPass)
	}
	passes := make([]BlurShader, 0, len(kernels))
	for i, k := range kernels {
		frag, err := CreateShader(g, FragmentShader, BlurShaderSource(k, c))
		if err != nil {
			FreeBlurShaders(g, passes)
			return nil, fmt.Errorf("blur pass %d: %w", i, err)
		}
		prog, err := CreateProgram(g, frag)
		if err != nil {
			g.DeleteShader(frag)
			FreeBlurShaders(g, passes)
			return nil, fmt.Errorf("blur pass %d: %w", i, err)
		}
		passes = append(passes, BlurShader{
			FragShader:        frag,
			Prog:              prog,
			UnifmOffsetX:      g.GetUniformLocation(prog, "offset_x"),
			UnifmOffsetY:      g.GetUniformLocation(prog, "offset_y"),
			UnifmFactorCenter: g.GetUniformLocation(prog, "factor_center"),
		})
	}
	return passes, nil
}

// FreeBlurShader deletes one pass.
func FreeBlurShader(g GL, bs *BlurShader) {
	if bs.Prog != 0 {
		g.DeleteProgram(bs.Prog)
	}
	if bs.FragShader != 0 {
		g.DeleteShader(bs.FragShader)
	}
	*bs = BlurShader{UnifmOffsetX: -1, UnifmOffsetY: -1, UnifmFactorCenter: -1}
}

// FreeBlurShaders deletes every pass in passes.
func FreeBlurShaders(g GL, passes []BlurShader) {
	for i := range passes {
		FreeBlurShader(g, &passes[i])
	}
}
