// Package camera exposes the live video source the kiosk captures from.
package camera

import (
	"context"
	"errors"
	"image"
)

// ErrNoFrame is returned when the source has not produced a frame yet.
var ErrNoFrame = errors.New("camera: no frame available")

// Source is a live video source. Implementations must be safe for
// concurrent use: the detection poller reads frames while the UI
// goroutine may stop the source.
type Source interface {
	// Ready reports whether at least one frame has been captured and the
	// source is still running.
	Ready() bool

	// Frame returns the most recent frame.
	Frame() (image.Image, error)

	// Screenshot returns the most recent frame encoded as JPEG.
	Screenshot() ([]byte, error)

	// Stop terminates every active track and releases the device.
	// It is idempotent.
	Stop() error

	// ActiveTracks returns the number of tracks still running.
	ActiveTracks() int
}

// Opener acquires a Source. Open blocks until the device is running or
// ctx is done.
type Opener interface {
	Open(ctx context.Context) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Source, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Source, error) {
	return f(ctx)
}
