package daemon

import (
	"context"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/region"
	"github.com/1broseidon/glaze/internal/session"
)

// Display is the X side of the loop.
type Display interface {
	ListWindows() ([]*session.Window, error)
	Window(id xproto.Window) (*session.Window, error)
	SelectWindowEvents(id xproto.Window)
	IsOpacityAtom(atom xproto.Atom) bool

	TrackDamage(id xproto.Window) error
	ForgetDamage(id xproto.Window)
	// SubtractDamage marks a window's damage repaired and returns the
	// repaired area relative to the window origin.
	SubtractDamage(id xproto.Window) (region.Region, error)
	DamageOwner(d damage.Damage) (xproto.Window, bool)

	// WaitForEvent blocks for the next event or error. Both are nil once
	// the connection is closed.
	WaitForEvent() (xgb.Event, xgb.Error)
}

// Painter is the compositor as the loop drives it.
type Painter interface {
	Paint(windows []*session.Window, damage region.Region) bool
	Forget(id xproto.Window)
	Invalidate()
}

// LoopConfig holds configuration for the loop.
type LoopConfig struct {
	Session *session.Session
	Logger  *slog.Logger
}

// Loop owns the window stack and the painter. Every painter call happens
// on the goroutine running Run, which must be the one the backend was
// initialised on.
type Loop struct {
	root    xproto.Window
	s       *session.Session
	display Display
	painter Painter
	logger  *slog.Logger

	stack  Stack
	damage region.Region
	resync chan []*session.Window
}

// NewLoop creates a loop. Call Start to load the initial window set.
func NewLoop(cfg LoopConfig, display Display, painter Painter) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		root:    cfg.Session.Root,
		s:       cfg.Session,
		display: display,
		painter: painter,
		logger:  logger,
		resync:  make(chan []*session.Window, 1),
	}
}

// Resync returns the channel the reconciler delivers window listings on.
func (l *Loop) Resync() chan<- []*session.Window {
	return l.resync
}

// Stack returns the tracked windows.
func (l *Loop) Stack() *Stack {
	return &l.stack
}

func (l *Loop) screen() region.Region {
	return region.New(region.XYWH(0, 0, l.s.RootWidth, l.s.RootHeight))
}

// Start lists the existing windows and schedules a full repaint.
func (l *Loop) Start() error {
	windows, err := l.display.ListWindows()
	if err != nil {
		return err
	}
	for _, w := range windows {
		l.track(w)
	}
	l.damage = l.screen()
	l.logger.Info("tracking windows", "count", l.stack.Len())
	return nil
}

func (l *Loop) track(w *session.Window) {
	l.stack.Add(w)
	l.display.SelectWindowEvents(w.ID)
	if err := l.display.TrackDamage(w.ID); err != nil {
		l.logger.Debug("cannot track damage", "window", w.ID, "error", err)
	}
}

func (l *Loop) untrack(id xproto.Window) {
	if w, ok := l.stack.Remove(id); ok && w.Mapped {
		l.addDamage(w.Bounds())
	}
	l.painter.Forget(id)
	l.display.ForgetDamage(id)
}

func (l *Loop) addDamage(r region.Rect) {
	l.damage = l.damage.UnionRect(r)
}

type eventOrError struct {
	ev  xgb.Event
	err xgb.Error
}

func (l *Loop) readEvents(ctx context.Context, out chan<- eventOrError) {
	defer close(out)
	for {
		ev, err := l.display.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		select {
		case out <- eventOrError{ev, err}:
		case <-ctx.Done():
			return
		}
	}
}

// Run processes events and paints until ctx is cancelled or the
// connection closes. Events are handled in batches; a frame is painted
// after each batch that left damage.
func (l *Loop) Run(ctx context.Context) error {
	events := make(chan eventOrError, 64)
	go l.readEvents(ctx, events)

	l.paint()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case listed := <-l.resync:
			l.reconcile(listed)
		case e, ok := <-events:
			if !ok {
				l.logger.Info("X connection closed")
				return nil
			}
			l.dispatch(e)
			if !l.drain(events) {
				l.logger.Info("X connection closed")
				return nil
			}
		}
		l.paint()
	}
}

// drain handles every event already queued. It reports false once the
// event channel is closed.
func (l *Loop) drain(events <-chan eventOrError) bool {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			l.dispatch(e)
		default:
			return true
		}
	}
}

func (l *Loop) dispatch(e eventOrError) {
	if e.err != nil {
		// Requests on windows that vanished fail routinely.
		l.logger.Debug("X error", "error", e.err)
		return
	}
	l.handle(e.ev)
}

func (l *Loop) paint() {
	if l.damage.Empty() {
		return
	}
	l.painter.Paint(l.stack.Windows(), l.damage)
	l.damage = region.Region{}
}

func (l *Loop) handle(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.CreateNotifyEvent:
		if e.Parent != l.root {
			return
		}
		w, err := l.display.Window(e.Window)
		if err != nil {
			return
		}
		l.track(w)

	case xproto.MapNotifyEvent:
		w, err := l.display.Window(e.Window)
		if err != nil {
			return
		}
		w.Mapped = true
		if _, ok := l.stack.Get(e.Window); ok {
			l.replace(w)
		} else {
			l.track(w)
		}
		l.addDamage(w.Bounds())

	case xproto.UnmapNotifyEvent:
		w, ok := l.stack.Get(e.Window)
		if !ok {
			return
		}
		if w.Mapped {
			l.addDamage(w.Bounds())
		}
		w.Mapped = false
		// The window gets a new pixmap when mapped again.
		l.painter.Forget(e.Window)

	case xproto.DestroyNotifyEvent:
		l.untrack(e.Window)

	case xproto.ReparentNotifyEvent:
		if e.Parent == l.root {
			if w, err := l.display.Window(e.Window); err == nil {
				l.track(w)
				if w.Mapped {
					l.addDamage(w.Bounds())
				}
			}
			return
		}
		l.untrack(e.Window)

	case xproto.ConfigureNotifyEvent:
		if e.Window == l.root {
			l.s.RootWidth, l.s.RootHeight = int(e.Width), int(e.Height)
			l.painter.Invalidate()
			l.damage = l.screen()
			return
		}
		w, ok := l.stack.Get(e.Window)
		if !ok {
			return
		}
		if w.Mapped {
			l.addDamage(w.Bounds())
		}
		w.X, w.Y = int(e.X), int(e.Y)
		w.Width, w.Height = int(e.Width), int(e.Height)
		w.BorderWidth = int(e.BorderWidth)
		if !l.stack.RestackAbove(e.Window, e.AboveSibling) {
			// The sibling is a root child the stack does not hold, such
			// as an InputOnly window. Only the server knows the order.
			l.resyncNow()
		}
		if w.Mapped {
			l.addDamage(w.Bounds())
		}

	case xproto.PropertyNotifyEvent:
		if !l.display.IsOpacityAtom(e.Atom) {
			return
		}
		w, ok := l.stack.Get(e.Window)
		if !ok {
			return
		}
		fresh, err := l.display.Window(e.Window)
		if err != nil {
			return
		}
		w.Opacity = fresh.Opacity
		if w.Mapped {
			l.addDamage(w.Bounds())
		}

	case damage.NotifyEvent:
		id, ok := l.display.DamageOwner(e.Damage)
		if !ok {
			return
		}
		repaired, err := l.display.SubtractDamage(id)
		if err != nil {
			l.logger.Debug("cannot fetch window damage", "window", id, "error", err)
		}
		w, ok := l.stack.Get(id)
		if !ok || !w.Mapped {
			return
		}
		// Areas are relative to the window origin, inside the border.
		local := repaired.UnionRect(region.XYWH(int(e.Area.X), int(e.Area.Y), int(e.Area.Width), int(e.Area.Height)))
		l.damage = l.damage.Union(local.Translate(w.X+w.BorderWidth, w.Y+w.BorderWidth))
	}
}

// replace swaps in fresh state for a tracked window, keeping its place
// in the stack.
func (l *Loop) replace(w *session.Window) {
	if old, ok := l.stack.Get(w.ID); ok {
		*old = *w
	}
}

// resyncNow lists the windows and reconciles at once.
func (l *Loop) resyncNow() {
	windows, err := l.display.ListWindows()
	if err != nil {
		l.logger.Warn("failed to list windows", "error", err)
		return
	}
	l.reconcile(windows)
}

func (l *Loop) reconcile(listed []*session.Window) {
	reordered := !l.stack.InOrder(listed)
	removed, added := l.stack.Sync(listed)
	switch {
	case len(removed) > 0 || len(added) > 0:
		l.logger.Info("window set drifted, resynchronised", "removed", len(removed), "added", len(added))
	case reordered:
		l.logger.Debug("stacking order resynchronised")
	default:
		return
	}
	for _, id := range removed {
		l.painter.Forget(id)
		l.display.ForgetDamage(id)
	}
	for _, id := range added {
		l.display.SelectWindowEvents(id)
		if err := l.display.TrackDamage(id); err != nil {
			l.logger.Debug("cannot track damage", "window", id, "error", err)
		}
	}
	l.damage = l.screen()
}
