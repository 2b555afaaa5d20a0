//go:build !linux || !cgo

package glx

import "errors"

// OpenDriver is unavailable without cgo on Linux.
func OpenDriver(display string) (Driver, error) {
	return nil, errors.New("glx: built without cgo, the GLX backend is unavailable")
}
