// Package detect defines the face detection model the kiosk polls.
package detect

import (
	"context"
	"image"
)

// Model estimates the faces present in a frame. Only whether the result
// is empty matters to callers.
type Model interface {
	Detect(frame image.Image) ([]image.Rectangle, error)
	Close() error
}

// Loader loads a Model. Loading may be slow; callers run it off the UI
// goroutine.
type Loader interface {
	Load(ctx context.Context) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (Model, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (Model, error) {
	return f(ctx)
}

// HasFace runs m on frame and reports whether at least one face was found.
func HasFace(m Model, frame image.Image) (bool, error) {
	faces, err := m.Detect(frame)
	if err != nil {
		return false, err
	}
	return len(faces) > 0, nil
}
