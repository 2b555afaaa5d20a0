package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

func TestOpacityFromProp(t *testing.T) {
	cases := map[uint]float64{
		0:          0,
		0xffffffff: 1,
		0x7fffffff: float64(0x7fffffff) / 0xffffffff,
	}
	for in, want := range cases {
		if got := opacityFromProp(in); got != want {
			t.Fatalf("opacityFromProp(%#x): expected %v, got %v", in, want, got)
		}
	}
}

func TestCMSelectionName(t *testing.T) {
	if got := cmSelectionName(1); got != "_NET_WM_CM_S1" {
		t.Fatalf("expected _NET_WM_CM_S1, got %q", got)
	}
}

func TestWindowFromReplies(t *testing.T) {
	attrs := &xproto.GetWindowAttributesReply{
		Class:    xproto.WindowClassInputOutput,
		MapState: xproto.MapStateViewable,
		Visual:   0x21,
	}
	geom := &xproto.GetGeometryReply{
		Depth: 32, X: -5, Y: 20, Width: 100, Height: 50, BorderWidth: 2,
	}
	got, err := windowFromReplies(0x1200001, attrs, geom, 0.5)
	if err != nil {
		t.Fatalf("windowFromReplies error: %v", err)
	}
	want := &session.Window{
		ID: 0x1200001, X: -5, Y: 20, Width: 100, Height: 50, BorderWidth: 2,
		Depth: 32, Visual: 0x21, Mapped: true, Opacity: 0.5, FrameOpacity: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("window (-want +got):\n%s", diff)
	}

	attrs.MapState = xproto.MapStateUnmapped
	if got, _ := windowFromReplies(1, attrs, geom, 1); got.Mapped {
		t.Fatal("expected unmapped window")
	}

	attrs.Class = xproto.WindowClassInputOnly
	if _, err := windowFromReplies(1, attrs, geom, 1); !errors.Is(err, ErrNotPaintable) {
		t.Fatalf("expected ErrNotPaintable, got %v", err)
	}
}

func TestRegionFromRects(t *testing.T) {
	got := regionFromRects([]xproto.Rectangle{
		{X: 0, Y: 0, Width: 10, Height: 5},
		{X: 40, Y: 2, Width: 3, Height: 3},
	})
	want := region.New(region.XYWH(0, 0, 10, 5), region.XYWH(40, 2, 3, 3))
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !regionFromRects(nil).Empty() {
		t.Fatal("expected an empty region for no rectangles")
	}
}
