// Package webcam implements camera.Source over an OpenCV video capture.
package webcam

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/model"
)

// readRetryDelay is how long the read loop waits after an empty read.
const readRetryDelay = 10 * time.Millisecond

// Webcam is a camera.Source backed by an OpenCV video capture. A goroutine keeps
// the most recent frame so Frame and Screenshot never block on the device.
type Webcam struct {
	capture *gocv.VideoCapture
	quality int

	mu       sync.Mutex
	latest   gocv.Mat
	hasFrame bool
	running  bool

	stopCh chan struct{}
	done   chan struct{}
}

var _ camera.Source = (*Webcam)(nil)

// OpenWebcam opens the configured device and starts capturing.
func OpenWebcam(cfg model.CameraConfig) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("opening camera %q: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("opening camera %q: device not available", cfg.Device)
	}

	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	w := &Webcam{
		capture: capture,
		quality: quality,
		latest:  gocv.NewMat(),
		running: true,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.readLoop()
	return w, nil
}

// NewOpener returns a camera.Opener that opens a Webcam with cfg.
func NewOpener(cfg model.CameraConfig) camera.Opener {
	return camera.OpenerFunc(func(ctx context.Context) (camera.Source, error) {
		w, err := OpenWebcam(cfg)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			w.Stop()
			return nil, err
		}
		return w, nil
	})
}

func (w *Webcam) readLoop() {
	defer close(w.done)

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		if ok := w.capture.Read(&img); !ok || img.Empty() {
			time.Sleep(readRetryDelay)
			continue
		}

		w.mu.Lock()
		w.latest.Close()
		w.latest = img.Clone()
		w.hasFrame = true
		w.mu.Unlock()
	}
}

// Ready reports whether a frame is available.
func (w *Webcam) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running && w.hasFrame
}

// Frame returns the latest frame as an image.
func (w *Webcam) Frame() (image.Image, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running || !w.hasFrame {
		return nil, camera.ErrNoFrame
	}
	img, err := w.latest.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return img, nil
}

// Screenshot returns the latest frame encoded as JPEG.
func (w *Webcam) Screenshot() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running || !w.hasFrame {
		return nil, camera.ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(
		gocv.JPEGFileExt, w.latest,
		[]int{gocv.IMWriteJpegQuality, w.quality},
	)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory that Close frees.
	data := append([]byte(nil), buf.GetBytes()...)
	return data, nil
}

// Stop halts the read loop and releases the device. The read loop is
// joined before the capture is closed so no Read races the release.
func (w *Webcam) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest.Close()
	w.hasFrame = false
	if err := w.capture.Close(); err != nil {
		return fmt.Errorf("closing camera: %w", err)
	}
	return nil
}

// ActiveTracks returns 1 while capturing and 0 once stopped.
func (w *Webcam) ActiveTracks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return 1
	}
	return 0
}
