package region

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_DropsEmptyAndMergesOverlap(t *testing.T) {
	r := New(
		XYWH(0, 0, 10, 10),
		XYWH(5, 5, 10, 10),
		Rect{X1: 3, Y1: 3, X2: 3, Y2: 9},
	)
	if got := r.Area(); got != 175 {
		t.Fatalf("expected area 175, got %d", got)
	}
	rects := r.Rects()
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Fatalf("rects %v and %v overlap", rects[i], rects[j])
			}
		}
	}
}

func TestRegion_ZeroValueIsEmpty(t *testing.T) {
	var r Region
	if !r.Empty() || r.Len() != 0 || r.Area() != 0 {
		t.Fatalf("expected zero region to be empty, got %v", r)
	}
	if got := r.Extents(); got != (Rect{}) {
		t.Fatalf("expected empty extents, got %v", got)
	}
}

func TestRegion_SubtractAndIntersect(t *testing.T) {
	screen := New(XYWH(0, 0, 100, 100))
	hole := New(XYWH(25, 25, 50, 50))

	ring := screen.Subtract(hole)
	if got := ring.Area(); got != 100*100-50*50 {
		t.Fatalf("expected ring area %d, got %d", 100*100-50*50, got)
	}
	if ring.Contains(50, 50) {
		t.Fatal("expected hole to be removed")
	}
	if !ring.Contains(0, 0) || !ring.Contains(99, 99) {
		t.Fatal("expected corners to remain")
	}

	in := screen.Intersect(hole)
	if !in.Equal(hole) {
		t.Fatalf("expected intersection %v, got %v", hole, in)
	}
	if !ring.Union(hole).Equal(screen) {
		t.Fatal("expected ring ∪ hole == screen")
	}
}

func TestRegion_OperationsDoNotAliasInputs(t *testing.T) {
	a := New(XYWH(0, 0, 10, 10))
	before := a.Rects()

	_ = a.Union(New(XYWH(20, 20, 5, 5)))
	_ = a.Translate(3, 4)
	_ = a.UnionRect(XYWH(10, 0, 1, 1))
	_ = YFlip(a, 100)

	if diff := cmp.Diff(before, a.Rects()); diff != "" {
		t.Fatalf("region mutated (-before +after):\n%s", diff)
	}
}

func TestYFlip(t *testing.T) {
	r := New(XYWH(10, 0, 20, 30), XYWH(0, 90, 5, 10))
	got := YFlip(r, 100).Rects()
	want := []Rect{
		{X1: 10, Y1: 70, X2: 30, Y2: 100},
		{X1: 0, Y1: 0, X2: 5, Y2: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("YFlip mismatch (-want +got):\n%s", diff)
	}

	if back := YFlip(YFlip(r, 100), 100); !back.Equal(r) {
		t.Fatalf("expected double flip to be identity, got %v", back)
	}
}

func TestYFlip_EmptyRegion(t *testing.T) {
	if got := YFlip(Region{}, 768); !got.Empty() {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestExtentsAndTranslate(t *testing.T) {
	r := New(XYWH(5, 5, 5, 5), XYWH(20, 30, 10, 10)).Translate(-5, 10)
	want := Rect{X1: 0, Y1: 15, X2: 25, Y2: 50}
	if got := r.Extents(); got != want {
		t.Fatalf("expected extents %v, got %v", want, got)
	}
}
