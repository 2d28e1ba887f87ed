package testutil

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/detect"
)

// FakeJPEG is the screenshot payload served by FakeSource.
var FakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xD9}

// FakeSource is an in-memory camera.Source with one track.
type FakeSource struct {
	mu      sync.Mutex
	ready   bool
	running bool
	noShot  bool
	stops   int
}

// NewFakeSource returns a running, ready source.
func NewFakeSource() *FakeSource {
	return &FakeSource{ready: true, running: true}
}

// SetReady toggles whether the feed has a frame.
func (f *FakeSource) SetReady(ready bool) {
	f.mu.Lock()
	f.ready = ready
	f.mu.Unlock()
}

// FailScreenshots makes Screenshot return camera.ErrNoFrame.
func (f *FakeSource) FailScreenshots() {
	f.mu.Lock()
	f.noShot = true
	f.mu.Unlock()
}

// Stops returns how many times Stop was called.
func (f *FakeSource) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *FakeSource) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running && f.ready
}

func (f *FakeSource) Frame() (image.Image, error) {
	if !f.Ready() {
		return nil, camera.ErrNoFrame
	}
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

func (f *FakeSource) Screenshot() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running || !f.ready || f.noShot {
		return nil, camera.ErrNoFrame
	}
	return FakeJPEG, nil
}

func (f *FakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.stops++
	return nil
}

func (f *FakeSource) ActiveTracks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return 1
	}
	return 0
}

// Opener returns a camera.Opener that restarts and yields f.
func (f *FakeSource) Opener() camera.Opener {
	return camera.OpenerFunc(func(context.Context) (camera.Source, error) {
		f.mu.Lock()
		f.running = true
		f.mu.Unlock()
		return f, nil
	})
}

// FakeModel is a detect.Model whose answer the test controls.
type FakeModel struct {
	mu     sync.Mutex
	face   bool
	fail   bool
	calls  int
	closed bool
}

// SetFace sets whether Detect reports a face.
func (m *FakeModel) SetFace(face bool) {
	m.mu.Lock()
	m.face = face
	m.mu.Unlock()
}

// SetFail makes Detect return an error.
func (m *FakeModel) SetFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// Calls returns how many times Detect ran.
func (m *FakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *FakeModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *FakeModel) Detect(image.Image) ([]image.Rectangle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return nil, errors.New("detector failure")
	}
	if m.face {
		return []image.Rectangle{image.Rect(0, 0, 2, 2)}, nil
	}
	return nil, nil
}

func (m *FakeModel) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Loader returns a detect.Loader that always yields m.
func (m *FakeModel) Loader() detect.Loader {
	return detect.LoaderFunc(func(context.Context) (detect.Model, error) {
		return m, nil
	})
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
