// Package region implements the rectangle-set algebra used for dirty and
// clip tracking.
//
// A Region is a set of non-overlapping, half-open axis-aligned rectangles.
// Values are immutable: every operation returns a new Region and never
// shares its backing storage with the receiver or the arguments.
package region

import (
	"fmt"
	"strings"
)

// Rect is a half-open rectangle [X1,X2) x [Y1,Y2).
type Rect struct {
	X1, Y1 int
	X2, Y2 int
}

// XYWH builds a Rect from an origin and size.
func XYWH(x, y, width, height int) Rect {
	return Rect{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Overlaps reports whether r and o share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width(), r.Height(), r.X1, r.Y1)
}

// subtract returns the parts of r not covered by o, as up to four
// non-overlapping bands.
func (r Rect) subtract(o Rect) []Rect {
	in := r.Intersect(o)
	if in.Empty() {
		return []Rect{r}
	}
	var out []Rect
	if r.Y1 < in.Y1 {
		out = append(out, Rect{r.X1, r.Y1, r.X2, in.Y1})
	}
	if in.Y2 < r.Y2 {
		out = append(out, Rect{r.X1, in.Y2, r.X2, r.Y2})
	}
	if r.X1 < in.X1 {
		out = append(out, Rect{r.X1, in.Y1, in.X1, in.Y2})
	}
	if in.X2 < r.X2 {
		out = append(out, Rect{in.X2, in.Y1, r.X2, in.Y2})
	}
	return out
}

// Region is a set of non-overlapping rectangles. The zero value is the
// empty region.
type Region struct {
	rects []Rect
}

// New returns the union of rects. Empty rectangles are dropped.
func New(rects ...Rect) Region {
	var r Region
	for _, rect := range rects {
		r.rects = addRect(r.rects, rect)
	}
	return r
}

// Copy returns an independent copy of r.
func (r Region) Copy() Region {
	if len(r.rects) == 0 {
		return Region{}
	}
	return Region{rects: append([]Rect(nil), r.rects...)}
}

// Rects returns a copy of the rectangles making up r.
func (r Region) Rects() []Rect {
	return append([]Rect(nil), r.rects...)
}

// Len returns the number of rectangles in r.
func (r Region) Len() int {
	return len(r.rects)
}

// Empty reports whether r covers no pixels.
func (r Region) Empty() bool {
	return len(r.rects) == 0
}

// Area returns the number of pixels covered by r.
func (r Region) Area() int {
	n := 0
	for _, rect := range r.rects {
		n += rect.Area()
	}
	return n
}

// Extents returns the bounding box of r.
func (r Region) Extents() Rect {
	if len(r.rects) == 0 {
		return Rect{}
	}
	ext := r.rects[0]
	for _, rect := range r.rects[1:] {
		ext.X1 = min(ext.X1, rect.X1)
		ext.Y1 = min(ext.Y1, rect.Y1)
		ext.X2 = max(ext.X2, rect.X2)
		ext.Y2 = max(ext.Y2, rect.Y2)
	}
	return ext
}

// Contains reports whether the pixel (x, y) is inside r.
func (r Region) Contains(x, y int) bool {
	for _, rect := range r.rects {
		if x >= rect.X1 && x < rect.X2 && y >= rect.Y1 && y < rect.Y2 {
			return true
		}
	}
	return false
}

// Union returns r ∪ o.
func (r Region) Union(o Region) Region {
	out := r.Copy()
	for _, rect := range o.rects {
		out.rects = addRect(out.rects, rect)
	}
	return out
}

// UnionRect returns r ∪ rect.
func (r Region) UnionRect(rect Rect) Region {
	out := r.Copy()
	out.rects = addRect(out.rects, rect)
	return out
}

// Subtract returns r \ o.
func (r Region) Subtract(o Region) Region {
	cur := r.Rects()
	for _, cut := range o.rects {
		var next []Rect
		for _, rect := range cur {
			next = append(next, rect.subtract(cut)...)
		}
		cur = next
	}
	return Region{rects: cur}
}

// Intersect returns r ∩ o.
func (r Region) Intersect(o Region) Region {
	var out []Rect
	for _, a := range r.rects {
		for _, b := range o.rects {
			if in := a.Intersect(b); !in.Empty() {
				out = append(out, in)
			}
		}
	}
	return Region{rects: out}
}

// IntersectRect returns r ∩ rect.
func (r Region) IntersectRect(rect Rect) Region {
	return r.Intersect(Region{rects: []Rect{rect}})
}

// Translate returns r moved by (dx, dy).
func (r Region) Translate(dx, dy int) Region {
	out := r.Copy()
	for i := range out.rects {
		out.rects[i].X1 += dx
		out.rects[i].X2 += dx
		out.rects[i].Y1 += dy
		out.rects[i].Y2 += dy
	}
	return out
}

// Equal reports whether r and o cover exactly the same pixels, regardless
// of how each is split into rectangles.
func (r Region) Equal(o Region) bool {
	return r.Area() == o.Area() && r.Subtract(o).Empty()
}

func (r Region) String() string {
	if len(r.rects) == 0 {
		return "{}"
	}
	parts := make([]string, len(r.rects))
	for i, rect := range r.rects {
		parts[i] = rect.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// YFlip mirrors r vertically around a surface of the given height,
// converting between top-left and bottom-left origin coordinates. The
// input region is not modified.
func YFlip(r Region, height int) Region {
	out := r.Copy()
	for i := range out.rects {
		y1 := out.rects[i].Y1
		out.rects[i].Y1 = height - out.rects[i].Y2
		out.rects[i].Y2 = height - y1
	}
	return out
}

// addRect appends the parts of rect not already covered by rects.
func addRect(rects []Rect, rect Rect) []Rect {
	if rect.Empty() {
		return rects
	}
	pending := []Rect{rect}
	for _, have := range rects {
		var next []Rect
		for _, p := range pending {
			next = append(next, p.subtract(have)...)
		}
		pending = next
		if len(pending) == 0 {
			return rects
		}
	}
	return append(rects, pending...)
}
