package glx

import (
	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/session"
)

// Name is the registry name of the backend.
const Name = "glx"

func init() {
	backend.Register(backend.Info{
		Name:     Name,
		Priority: 10,
		Init:     initBackend,
	})
}

func initBackend(s *session.Session) (backend.Backend, error) {
	drv, err := OpenDriver(s.DisplayName)
	if err != nil {
		return nil, err
	}
	b, err := New(s, drv)
	if err != nil {
		return nil, err
	}
	return b, nil
}
