package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/glaze/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconciler_DeliversListing(t *testing.T) {
	out := make(chan []*session.Window, 1)
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()},
		func() ([]*session.Window, error) {
			return []*session.Window{{ID: 7}}, nil
		}, out)

	if r.interval != 10*time.Second {
		t.Fatalf("expected default interval 10s, got %v", r.interval)
	}
	if !r.ReconcileNow(context.Background()) {
		t.Fatal("expected the listing to be delivered")
	}
	got := <-out
	if len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("expected window 7, got %v", got)
	}
}

func TestReconciler_DropsWhileLoopHoldsListing(t *testing.T) {
	out := make(chan []*session.Window, 1)
	calls := 0
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()},
		func() ([]*session.Window, error) {
			calls++
			return []*session.Window{{ID: 1}}, nil
		}, out)

	if !r.ReconcileNow(context.Background()) {
		t.Fatal("expected first listing delivered")
	}
	if r.ReconcileNow(context.Background()) {
		t.Fatal("expected second listing dropped")
	}
	if calls != 2 || len(out) != 1 {
		t.Fatalf("expected 2 listings and 1 pending, got %d and %d", calls, len(out))
	}
}

func TestReconciler_ListErrorAndPanicAreContained(t *testing.T) {
	out := make(chan []*session.Window, 1)

	failing := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, func() ([]*session.Window, error) {
		return nil, errors.New("connection lost")
	}, out)
	if failing.ReconcileNow(context.Background()) {
		t.Fatal("expected a failed listing not to be delivered")
	}

	panicking := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, func() ([]*session.Window, error) {
		panic("boom")
	}, out)
	if panicking.ReconcileNow(context.Background()) {
		t.Fatal("expected a panicking listing not to be delivered")
	}

	if len(out) != 0 {
		t.Fatal("expected nothing delivered")
	}
}

func TestReconciler_CancelledContextSkipsListing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()},
		func() ([]*session.Window, error) {
			called = true
			return nil, nil
		}, make(chan []*session.Window, 1))
	if r.ReconcileNow(ctx) || called {
		t.Fatal("expected no listing after cancellation")
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	out := make(chan []*session.Window, 1)
	var passes atomic.Int32
	r := NewReconciler(ReconcilerConfig{Interval: time.Millisecond, Logger: discardLogger()},
		func() ([]*session.Window, error) {
			passes.Add(1)
			return nil, nil
		}, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if passes.Load() == 0 {
		t.Fatal("expected at least one pass")
	}
}
