package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/glaze/internal/session"
)

// WindowLister returns the paintable windows in stacking order.
type WindowLister func() ([]*session.Window, error)

type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler re-lists the windows on a timer and offers each listing to
// the loop, which corrects drift in its tracked set caused by lost or
// reordered events.
type Reconciler struct {
	interval time.Duration
	list     WindowLister
	out      chan<- []*session.Window
	logger   *slog.Logger
}

// NewReconciler delivers listings on out. A zero interval means 10s.
func NewReconciler(cfg ReconcilerConfig, list WindowLister, out chan<- []*session.Window) *Reconciler {
	r := &Reconciler{
		interval: cfg.Interval,
		list:     list,
		out:      out,
		logger:   cfg.Logger,
	}
	if r.interval <= 0 {
		r.interval = 10 * time.Second
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "reconciler")
	return r
}

// Run lists windows every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("started", "interval", r.interval)
	defer r.logger.Info("stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReconcileNow(ctx)
		}
	}
}

// ReconcileNow lists windows once and offers the listing to the loop. It
// reports whether the listing was delivered. A listing is dropped while
// the loop still holds an unconsumed one; the next tick lists afresh.
func (r *Reconciler) ReconcileNow(ctx context.Context) (delivered bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("listing panicked", "panic", p)
			delivered = false
		}
	}()

	if ctx.Err() != nil {
		return false
	}
	windows, err := r.list()
	if err != nil {
		r.logger.Error("failed to list windows", "error", err)
		return false
	}

	select {
	case r.out <- windows:
		r.logger.Debug("listing delivered", "windows", len(windows))
		return true
	default:
		r.logger.Debug("loop busy, listing dropped", "windows", len(windows))
		return false
	}
}
