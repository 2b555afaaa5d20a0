package session

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/region"
)

func TestTarget_PrefersOverlay(t *testing.T) {
	s := &Session{Root: 1}
	if s.Target() != 1 {
		t.Fatalf("expected root target, got %d", s.Target())
	}
	s.Overlay = xproto.Window(7)
	if s.Target() != 7 {
		t.Fatalf("expected overlay target, got %d", s.Target())
	}
}

func TestParseSwapMethod(t *testing.T) {
	for in, want := range map[string]SwapMethod{
		"":           SwapUndefined,
		"undefined":  SwapUndefined,
		"buffer-age": SwapBufferAge,
	} {
		got, err := ParseSwapMethod(in)
		if err != nil {
			t.Fatalf("ParseSwapMethod(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSwapMethod(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseSwapMethod("exchange"); err == nil {
		t.Fatal("expected error for unknown swap method")
	}
}

func TestWindow_BorderedGeometry(t *testing.T) {
	w := &Window{X: 10, Y: 20, Width: 100, Height: 50, BorderWidth: 2, Depth: 24}
	if w.WidthB() != 104 || w.HeightB() != 54 {
		t.Fatalf("expected 104x54, got %dx%d", w.WidthB(), w.HeightB())
	}
	if got, want := w.Bounds(), region.XYWH(10, 20, 104, 54); got != want {
		t.Fatalf("expected bounds %v, got %v", want, got)
	}
	if w.HasAlpha() {
		t.Fatal("expected depth 24 to have no alpha")
	}
}

func TestBlurKernel_Center(t *testing.T) {
	k := BlurKernel{Width: 3, Height: 3, Weights: []float64{0, 1, 0, 1, 4, 1, 0, 1, 0}}
	if k.Center() != 4 {
		t.Fatalf("expected centre 4, got %v", k.Center())
	}
}
