// Package kiosk is the root Bubble Tea program: it owns the capture state
// machine, the camera session, the detection poller and the notification
// surface.
package kiosk

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/attendance-kiosk/internal/attendance"
	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/detect"
	"github.com/nhle/attendance-kiosk/internal/keys"
	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/notify"
	"github.com/nhle/attendance-kiosk/internal/scan"
	"github.com/nhle/attendance-kiosk/internal/ui"
	helpview "github.com/nhle/attendance-kiosk/internal/ui/help"
)

const (
	// ReturnDelay is how long the completed screen stays up before the
	// kiosk returns to idle on its own.
	ReturnDelay = 2 * time.Second

	// ReleaseDelay is how long the submission lock is held after an
	// unrecognized reply.
	ReleaseDelay = 2 * time.Second

	// CameraErrorDuration is how long the camera-open failure stays up.
	CameraErrorDuration = 10 * time.Second

	defaultSubmitTimeout = time.Minute
	cameraOpenTimeout    = 15 * time.Second
	modelLoadTimeout     = 30 * time.Second
	journalTimeout       = 5 * time.Second
)

// Submitter uploads one frame and classifies the reply.
// *attendance.Pipeline satisfies it.
type Submitter interface {
	Submit(ctx context.Context, jpeg []byte, requestID string) attendance.Outcome
}

// Journal records finished attempts. *store.SQLiteStore satisfies it.
type Journal interface {
	RecordAttempt(ctx context.Context, a model.Attempt) error
}

// Deps wires the kiosk to its collaborators. Camera, Detector and
// Submitter are required; everything else has a default.
type Deps struct {
	Camera    camera.Opener
	Detector  detect.Loader
	Submitter Submitter
	Journal   Journal
	Log       logrus.FieldLogger

	PollInterval  time.Duration
	SubmitTimeout time.Duration

	// After schedules delayed messages; tests replace it with a fake clock.
	After ui.Scheduler
	Now   func() time.Time
	NewID func() string
}

type detectorStatus int

const (
	detectorNone detectorStatus = iota
	detectorLoading
	detectorReady
	detectorFailed
)

// Model is the root Bubble Tea model.
type Model struct {
	deps     Deps
	state    State
	keys     *keys.KeyMap
	layout   ui.Layout
	notices  notify.Model
	helpView helpview.Model
	spinner  spinner.Model
	showHelp bool
	ready    bool

	source   camera.Source
	poller   *scan.Poller
	detector detect.Model
	detStat  detectorStatus
}

// New creates the kiosk on the idle screen.
func New(deps Deps) Model {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.After == nil {
		deps.After = ui.After
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = scan.DefaultInterval
	}
	if deps.SubmitTimeout <= 0 {
		deps.SubmitTimeout = defaultSubmitTimeout
	}

	km := keys.DefaultKeyMap()
	return Model{
		deps:     deps,
		state:    NewState(),
		keys:     km,
		layout:   ui.NewLayout(80, 24),
		notices:  notify.NewWithClock(deps.Now, deps.After),
		helpView: helpview.New(km, 80, 22),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// State returns the current capture state.
func (m Model) State() State {
	return m.state
}

// Notifications returns the visible notifications, oldest first.
func (m Model) Notifications() []model.Notification {
	return m.notices.Items()
}

// Init starts the spinner; the camera stays closed until the user starts.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and drives the state machine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.notices.SetWidth(noticeWidth(msg.Width))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case cameraOpenedMsg:
		return m.handleCameraOpened(msg)

	case modelLoadedMsg:
		return m.handleModelLoaded(msg)

	case scan.ResultMsg:
		return m.handleDetection(msg)

	case submittedMsg:
		return m.handleSubmitted(msg)

	case releaseLockMsg:
		if msg.epoch != m.state.Epoch || !m.state.Settling {
			return m, nil
		}
		if next, ok := m.state.Release(); ok {
			m.state = next
			if m.poller != nil {
				m.poller.Resume()
			}
		}
		return m, nil

	case returnToIdleMsg:
		if msg.epoch != m.state.Epoch {
			return m, nil
		}
		if next, ok := m.state.ReturnToIdle(); ok {
			m.state = next
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.notices, cmd = m.notices.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.cancel()

	case key.Matches(msg, m.keys.Dismiss):
		cmd := m.notices.RemoveNewest()
		return m, cmd

	case key.Matches(msg, m.keys.DismissAll):
		cmd := m.notices.DismissAll()
		return m, cmd

	case m.showHelp:
		return m, nil

	case key.Matches(msg, m.keys.Start):
		return m.start()

	case key.Matches(msg, m.keys.Retry):
		return m.retry()
	}
	return m, nil
}

// start opens a new camera session and loads the detector if needed.
func (m Model) start() (tea.Model, tea.Cmd) {
	next, ok := m.state.Start()
	if !ok {
		return m, nil
	}
	m.state = next
	m.log().Info("starting camera")

	cmds := []tea.Cmd{
		m.notices.DismissAll(),
		m.openCamera(next.Epoch),
	}
	if m.detector == nil && m.detStat != detectorLoading {
		m.detStat = detectorLoading
		cmds = append(cmds, m.loadModel())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	next, ok := m.state.Cancel()
	if !ok {
		return m, nil
	}
	m.state = next
	m.stopCamera()
	m.log().Info("camera stopped by user")
	return m, nil
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	next, ok := m.state.Retry()
	if !ok {
		return m, nil
	}
	m.state = next
	cmd := m.notices.DismissAll()
	return m, cmd
}

func (m Model) handleCameraOpened(msg cameraOpenedMsg) (tea.Model, tea.Cmd) {
	log := m.log().WithField("session", msg.epoch)

	if msg.epoch != m.state.Epoch || !m.state.CameraActive() || m.source != nil {
		if msg.source != nil {
			if err := msg.source.Stop(); err != nil {
				log.WithError(err).Warn("stopping late camera")
			}
			log.Debug("closed camera that opened after its session ended")
		}
		return m, nil
	}

	if msg.err != nil {
		log.WithError(msg.err).Error("opening camera")
		if next, ok := m.state.CameraFailed(); ok {
			m.state = next
		}
		cmd := m.notices.Show(
			model.CategoryError,
			"Camera Unavailable",
			msg.err.Error(),
			"camera-error",
			notify.Options{Duration: CameraErrorDuration},
		)
		return m, cmd
	}

	m.source = msg.source
	log.Info("camera opened")
	cmd := m.startPoller()
	return m, cmd
}

func (m Model) handleModelLoaded(msg modelLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.detStat = detectorFailed
		m.deps.Log.WithError(msg.err).Error("loading face detection model")
		return m, nil
	}
	m.detector = msg.model
	m.detStat = detectorReady
	m.deps.Log.Info("face detection model loaded")
	cmd := m.startPoller()
	return m, cmd
}

func (m Model) handleDetection(msg scan.ResultMsg) (tea.Model, tea.Cmd) {
	if m.poller == nil || msg.Epoch != m.poller.Epoch() {
		return m, nil
	}
	wait := m.poller.WaitForNextResult()

	if m.state.Phase != PhaseScanning {
		return m, wait
	}

	detected := msg.Ready && msg.Detected && msg.Err == nil
	if next, changed := m.state.SetFace(detected); changed {
		m.state = next
	}
	if !detected {
		return m, wait
	}

	submit := m.beginSubmit()
	return m, tea.Batch(wait, submit)
}

// beginSubmit takes the lock, captures the current frame and sends it.
func (m *Model) beginSubmit() tea.Cmd {
	next, ok := m.state.BeginSubmit()
	if !ok {
		return nil
	}
	m.state = next
	m.poller.Pause()

	started := m.deps.Now()
	jpeg, err := m.source.Screenshot()
	if err != nil {
		m.log().WithError(err).Warn("no frame to submit")
		m.state, _ = m.state.Skip()
		m.poller.Resume()
		return m.recordSkipped(started)
	}

	return m.submit(m.state.Epoch, jpeg, started)
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	log := m.log().WithFields(logrus.Fields{
		"attempt": msg.attemptID,
		"outcome": msg.outcome.Kind,
	})

	if msg.epoch != m.state.Epoch || !m.state.InFlight() || m.state.Settling {
		log.Debug("discarding stale submission result")
		return m, nil
	}

	n := msg.outcome.Notice
	show := m.notices.Show(n.Category, n.Title, n.Message, n.Key, notify.Options{
		Duration: n.Duration,
		Variant:  n.Variant,
		Payload:  n.Payload,
	})

	switch msg.outcome.Kind {
	case model.OutcomeSuccess, model.OutcomeAlreadyMarked:
		m.state, _ = m.state.Complete()
		m.stopCamera()
		log.Info("attendance recorded")
		return m, tea.Batch(show, m.deps.After(ReturnDelay, returnToIdleMsg{epoch: m.state.Epoch}))

	case model.OutcomeUnknown:
		m.state, _ = m.state.Settle()
		log.WithField("status", msg.outcome.Status).Warn("unrecognized attendance reply")
		return m, tea.Batch(show, m.deps.After(ReleaseDelay, releaseLockMsg{epoch: m.state.Epoch}))

	default:
		m.state, _ = m.state.Fail()
		m.stopCamera()
		log.WithField("error_code", msg.outcome.ErrorCode).Warn("attendance submission failed")
		return m, show
	}
}

// startPoller begins detection once both the camera and the model are
// available for the current session.
func (m *Model) startPoller() tea.Cmd {
	if m.source == nil || m.detector == nil || m.poller != nil || !m.state.CameraActive() {
		return nil
	}
	m.poller = scan.New(m.source, m.detector, m.state.Epoch, m.deps.PollInterval, m.log())
	if m.state.InFlight() {
		m.poller.Pause()
	}
	return m.poller.Start()
}

// stopCamera releases the camera and halts detection. Safe to call when
// nothing is running.
func (m *Model) stopCamera() {
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
	if m.source != nil {
		if err := m.source.Stop(); err != nil {
			m.log().WithError(err).Warn("stopping camera")
		}
		m.source = nil
	}
}

// Shutdown stops the camera and releases the detector before quitting.
func (m *Model) Shutdown() {
	m.stopCamera()
	if m.detector != nil {
		if err := m.detector.Close(); err != nil {
			m.deps.Log.WithError(err).Warn("closing face detection model")
		}
		m.detector = nil
	}
}

func (m Model) log() logrus.FieldLogger {
	return m.deps.Log.WithField("epoch", m.state.Epoch)
}

func noticeWidth(termWidth int) int {
	return max(min(termWidth/3, 60), 30)
}
