// Package cascade implements detect.Model with an OpenCV Haar cascade.
package cascade

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/nhle/attendance-kiosk/internal/detect"
)

// minFaceSize filters out detections too small to be a person at the kiosk.
var minFaceSize = image.Pt(80, 80)

// Cascade is a face detector backed by gocv.CascadeClassifier.
type Cascade struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	closed     bool
}

var _ detect.Model = (*Cascade)(nil)

// Load reads the cascade XML at path.
func Load(path string) (*Cascade, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cascade model %s: %w", path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("loading cascade model %s", path)
	}
	return &Cascade{classifier: classifier}, nil
}

// NewLoader returns a detect.Loader for the cascade XML at path.
func NewLoader(path string) detect.Loader {
	return detect.LoaderFunc(func(ctx context.Context) (detect.Model, error) {
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Detect converts frame to grayscale and runs multi-scale detection.
func (c *Cascade) Detect(frame image.Image) ([]image.Rectangle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("cascade model closed")
	}

	img, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorRGBToGray)
	gocv.EqualizeHist(gray, &gray)

	rects := c.classifier.DetectMultiScaleWithParams(
		gray, 1.1, 5, 0, minFaceSize, image.Point{},
	)
	return rects, nil
}

// Close releases the classifier.
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.classifier.Close()
}
