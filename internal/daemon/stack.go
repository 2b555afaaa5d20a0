package daemon

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/glaze/internal/session"
)

// Stack is the tracked set of top-level windows in stacking order,
// bottom-most first.
type Stack struct {
	order []*session.Window
}

// Windows returns the tracked windows bottom-most first. The slice is
// shared; callers must not modify it.
func (s *Stack) Windows() []*session.Window {
	return s.order
}

// Len returns the number of tracked windows.
func (s *Stack) Len() int {
	return len(s.order)
}

func (s *Stack) index(id xproto.Window) int {
	for i, w := range s.order {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the tracked window with id.
func (s *Stack) Get(id xproto.Window) (*session.Window, bool) {
	if i := s.index(id); i >= 0 {
		return s.order[i], true
	}
	return nil, false
}

// Add puts w on top, replacing an existing entry with the same id.
func (s *Stack) Add(w *session.Window) {
	s.Remove(w.ID)
	s.order = append(s.order, w)
}

// Remove drops a window and returns it.
func (s *Stack) Remove(id xproto.Window) (*session.Window, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	w := s.order[i]
	s.order = append(s.order[:i], s.order[i+1:]...)
	return w, true
}

// RestackAbove moves id directly above sibling, or to the bottom for a
// zero sibling. It reports false and leaves the order alone when id or
// sibling is not tracked.
func (s *Stack) RestackAbove(id, sibling xproto.Window) bool {
	if s.index(id) < 0 {
		return false
	}
	if sibling != xproto.WindowNone && s.index(sibling) < 0 {
		return false
	}
	w, _ := s.Remove(id)
	pos := 0
	if sibling != xproto.WindowNone {
		pos = s.index(sibling) + 1
	}
	s.order = append(s.order, nil)
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = w
	return true
}

// InOrder reports whether listed holds exactly the tracked ids in the
// tracked order.
func (s *Stack) InOrder(listed []*session.Window) bool {
	if len(listed) != len(s.order) {
		return false
	}
	for i, w := range listed {
		if s.order[i].ID != w.ID {
			return false
		}
	}
	return true
}

// Sync replaces the tracked set with listed, keeping its order. It
// returns the ids that disappeared and the ones that are new.
func (s *Stack) Sync(listed []*session.Window) (removed, added []xproto.Window) {
	seen := make(map[xproto.Window]bool, len(listed))
	for _, w := range listed {
		seen[w.ID] = true
		if _, ok := s.Get(w.ID); !ok {
			added = append(added, w.ID)
		}
	}
	for _, w := range s.order {
		if !seen[w.ID] {
			removed = append(removed, w.ID)
		}
	}
	s.order = append([]*session.Window(nil), listed...)
	return removed, added
}
