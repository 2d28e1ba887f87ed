package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// Still is a Source that serves one fixed image. It stands in for a
// webcam on machines without a capture device.
type Still struct {
	img  image.Image
	jpeg []byte

	mu      sync.Mutex
	running bool
}

var _ Source = (*Still)(nil)

// NewStill returns a running Still serving img.
func NewStill(img image.Image, quality int) (*Still, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding still image: %w", err)
	}
	return &Still{img: img, jpeg: buf.Bytes(), running: true}, nil
}

// NewStillOpener returns an Opener that serves the image file at path.
func NewStillOpener(path string, quality int) Opener {
	return OpenerFunc(func(ctx context.Context) (Source, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening still image: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding still image %s: %w", path, err)
		}
		return NewStill(img, quality)
	})
}

// Ready reports whether the still has not been stopped.
func (s *Still) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Frame returns the image, or ErrNoFrame once stopped.
func (s *Still) Frame() (image.Image, error) {
	if !s.Ready() {
		return nil, ErrNoFrame
	}
	return s.img, nil
}

// Screenshot returns the image encoded once as JPEG at construction.
func (s *Still) Screenshot() ([]byte, error) {
	if !s.Ready() {
		return nil, ErrNoFrame
	}
	return s.jpeg, nil
}

// Stop marks the still as stopped. It is idempotent.
func (s *Still) Stop() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// ActiveTracks returns 1 until Stop is called.
func (s *Still) ActiveTracks() int {
	if s.Ready() {
		return 1
	}
	return 0
}
