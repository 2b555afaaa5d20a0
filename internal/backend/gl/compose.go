package gl

import (
	"github.com/1broseidon/glaze/internal/region"
)

// Compose draws a rectangle of tex into the current framebuffer.
//
// All coordinates are GL coordinates with a bottom-left origin. (dstX,
// dstY) is the bottom-left corner of the destination; (srcX, srcY) is the
// top-left corner of the source area in the texture's image. Only pixels
// inside reg are painted. With argb set, or opacity below 1, the texture
// is alpha blended without premultiplication; neg inverts colour when a
// shader is in use.
func Compose(g GL, tex *Texture, srcX, srcY, dstX, dstY, width, height, z int,
	opacity float64, argb, neg bool, reg region.Region, shader *WinShader) {
	if tex == nil || tex.Texture == 0 {
		return
	}
	dst := region.XYWH(dstX, dstY, width, height)
	clipped := reg.IntersectRect(dst)
	if clipped.Empty() {
		return
	}

	blend := argb || opacity < 1
	if blend {
		g.Enable(Blend)
		g.BlendFunc(SrcAlpha, OneMinusSrcAlpha)
	}

	useShader := shader != nil && shader.Prog != 0 && tex.Target == Texture2D
	if useShader {
		g.UseProgram(shader.Prog)
		if shader.UnifmOpacity >= 0 {
			g.Uniform1f(shader.UnifmOpacity, float32(opacity))
		}
		if shader.UnifmInvertColor >= 0 {
			inv := int32(0)
			if neg {
				inv = 1
			}
			g.Uniform1i(shader.UnifmInvertColor, inv)
		}
		if shader.UnifmTex >= 0 {
			g.Uniform1i(shader.UnifmTex, 0)
		}
	} else {
		g.TexEnvi(TextureEnv, TextureEnvMode, Modulate)
		g.Color4f(1, 1, 1, float32(opacity))
	}

	g.Enable(tex.Target)
	g.BindTexture(tex.Target, tex.Texture)

	g.Begin(Quads)
	for _, r := range clipped.Rects() {
		corners := [4][2]int{
			{r.X1, r.Y1},
			{r.X2, r.Y1},
			{r.X2, r.Y2},
			{r.X1, r.Y2},
		}
		for _, c := range corners {
			s, t := texCoord(tex, srcX, srcY, dstX, dstY, height, c[0], c[1])
			g.TexCoord2f(s, t)
			g.Vertex3i(int32(c[0]), int32(c[1]), int32(z))
		}
	}
	g.End()

	g.BindTexture(tex.Target, 0)
	g.Disable(tex.Target)
	if blend {
		g.Disable(Blend)
	}
	if useShader {
		g.UseProgram(0)
	} else {
		g.TexEnvi(TextureEnv, TextureEnvMode, Replace)
		g.Color4f(1, 1, 1, 1)
	}
}

// texCoord maps the GL-space point (x, y) inside the destination
// rectangle to texture coordinates.
func texCoord(tex *Texture, srcX, srcY, dstX, dstY, height, x, y int) (float32, float32) {
	tx := srcX + (x - dstX)
	// Rows counted from the top of the image.
	ty := srcY + (dstY + height - y)
	if !tex.YInverted {
		ty = tex.Height - ty
	}
	if tex.Target == Texture2D {
		return float32(tx) / float32(tex.Width), float32(ty) / float32(tex.Height)
	}
	return float32(tx), float32(ty)
}

// Fill paints reg, in GL coordinates, with opaque black. No texture may
// be enabled.
func Fill(g GL, reg region.Region) {
	if reg.Empty() {
		return
	}
	g.Color4f(0, 0, 0, 1)
	g.Begin(Quads)
	for _, r := range reg.Rects() {
		g.Vertex3i(int32(r.X1), int32(r.Y1), 0)
		g.Vertex3i(int32(r.X2), int32(r.Y1), 0)
		g.Vertex3i(int32(r.X2), int32(r.Y2), 0)
		g.Vertex3i(int32(r.X1), int32(r.Y2), 0)
	}
	g.End()
}
