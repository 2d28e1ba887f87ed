// Package scan polls the face detector against the live camera feed.
package scan

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/detect"
)

// DefaultInterval is the detection cadence.
const DefaultInterval = time.Second

// ResultMsg is a tea.Msg sent after every detection tick that was not
// skipped.
type ResultMsg struct {
	// Epoch identifies the camera session the poller belongs to.
	Epoch uint64

	// Ready is false when the video feed had no frame yet.
	Ready bool

	// Detected reports at least one face in the frame.
	Detected bool

	// Err is the detection error, if any. Detected is false when set.
	Err error
}

// Poller runs detection on a fixed interval for one camera session.
type Poller struct {
	source   camera.Source
	model    detect.Model
	epoch    uint64
	interval time.Duration
	log      logrus.FieldLogger

	resultCh chan ResultMsg
	stopCh   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	paused  bool
}

// New creates a Poller for src and m. Results carry epoch.
func New(
	src camera.Source,
	m detect.Model,
	epoch uint64,
	interval time.Duration,
	log logrus.FieldLogger,
) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   src,
		model:    m,
		epoch:    epoch,
		interval: interval,
		log:      log,
		resultCh: make(chan ResultMsg, 4),
		stopCh:   make(chan struct{}),
	}
}

// Epoch returns the session this poller reports for.
func (p *Poller) Epoch() uint64 {
	return p.epoch
}

// Start launches the polling goroutine and returns a command that waits
// for its first result. Starting twice, or after Stop, returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	go p.run()

	return p.waitForResult()
}

// Stop halts the ticker. No tick starts after Stop returns, and any
// command waiting for a result returns nil once the goroutine exits.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)

	if !p.started {
		close(p.resultCh)
	}
}

// Pause makes every tick a no-op until Resume is called.
func (p *Poller) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume re-enables detection after Pause.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

// Paused reports whether ticks are currently skipped.
func (p *Poller) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call it after handling each ResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

func (p *Poller) run() {
	defer close(p.resultCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick performs one detection pass.
func (p *Poller) tick() {
	p.mu.Lock()
	skip := p.paused || p.stopped
	p.mu.Unlock()
	if skip {
		return
	}

	if !p.source.Ready() {
		p.sendResult(ResultMsg{Epoch: p.epoch})
		return
	}

	frame, err := p.source.Frame()
	if err != nil {
		p.log.WithError(err).Debug("reading frame")
		p.sendResult(ResultMsg{Epoch: p.epoch})
		return
	}

	detected, err := detect.HasFace(p.model, frame)
	if err != nil {
		p.log.WithError(err).Error("detection error")
		p.sendResult(ResultMsg{Epoch: p.epoch, Ready: true, Err: err})
		return
	}

	p.sendResult(ResultMsg{Epoch: p.epoch, Ready: true, Detected: detected})
}

// sendResult sends on the result channel without blocking.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the UI has not caught up; the next tick reports again.
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	ch := p.resultCh
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return nil
		}
		return result
	}
}
