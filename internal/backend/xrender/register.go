package xrender

import (
	"errors"

	"github.com/1broseidon/glaze/internal/backend"
	"github.com/1broseidon/glaze/internal/session"
)

// Name is the registry name of the backend.
const Name = "xrender"

func init() {
	backend.Register(backend.Info{
		Name:     Name,
		Priority: 0,
		Init:     initBackend,
	})
}

func initBackend(s *session.Session) (backend.Backend, error) {
	if s.Conn == nil {
		return nil, errors.New("xrender: session has no X connection")
	}
	srv, err := NewServer(s.Conn)
	if err != nil {
		return nil, err
	}
	b, err := New(s, srv)
	if err != nil {
		return nil, err
	}
	return b, nil
}
