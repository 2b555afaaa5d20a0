package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/glaze/internal/session"
)

// InitFunc initialises a backend against a session. On failure it must
// leave nothing allocated.
type InitFunc func(s *session.Session) (Backend, error)

// Info describes a registered backend.
type Info struct {
	Name string
	// Priority orders automatic selection; higher is tried first.
	Priority int
	Init     InitFunc
}

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Info)
)

// Register adds a backend. It is typically called from an init function
// in the backend's package. A later registration with the same name
// replaces the earlier one.
func Register(info Info) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[info.Name] = info
}

// Unregister removes a backend. This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Info, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := backends[name]
	return info, ok
}

// Available returns registered backends in selection order.
func Available() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	infos := make([]Info, 0, len(backends))
	for _, info := range backends {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Priority != infos[j].Priority {
			return infos[i].Priority > infos[j].Priority
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Select initialises the backend to use for the lifetime of the process.
// With a non-empty name only that backend is tried. Otherwise backends are
// tried in priority order and the first that initialises wins.
func Select(s *session.Session, name string) (Backend, Info, error) {
	if name != "" {
		info, ok := Lookup(name)
		if !ok {
			return nil, Info{}, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}
		b, err := info.Init(s)
		if err != nil {
			return nil, Info{}, fmt.Errorf("backend %s: %w", name, err)
		}
		return b, info, nil
	}

	var errs []error
	for _, info := range Available() {
		b, err := info.Init(s)
		if err == nil {
			return b, info, nil
		}
		s.Log().Warn("backend unavailable, trying next", "backend", info.Name, "error", err)
		errs = append(errs, fmt.Errorf("backend %s: %w", info.Name, err))
	}
	return nil, Info{}, errors.Join(append([]error{ErrNoBackend}, errs...)...)
}
