package kiosk

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/attendance-kiosk/internal/attendance"
	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/detect"
	"github.com/nhle/attendance-kiosk/internal/model"
)

// cameraOpenedMsg reports the result of opening the camera for a session.
type cameraOpenedMsg struct {
	epoch  uint64
	source camera.Source
	err    error
}

// modelLoadedMsg reports the result of loading the detector.
type modelLoadedMsg struct {
	model detect.Model
	err   error
}

// submittedMsg carries the classified reply for one submission.
type submittedMsg struct {
	epoch     uint64
	attemptID string
	outcome   attendance.Outcome
}

// returnToIdleMsg fires ReturnDelay after a completed session.
type returnToIdleMsg struct{ epoch uint64 }

// releaseLockMsg fires ReleaseDelay after an unrecognized reply.
type releaseLockMsg struct{ epoch uint64 }

// openCamera returns a command that opens the camera for epoch.
func (m Model) openCamera(epoch uint64) tea.Cmd {
	opener := m.deps.Camera
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cameraOpenTimeout)
		defer cancel()

		src, err := opener.Open(ctx)
		return cameraOpenedMsg{epoch: epoch, source: src, err: err}
	}
}

// loadModel returns a command that loads the face detector.
func (m Model) loadModel() tea.Cmd {
	loader := m.deps.Detector
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelLoadTimeout)
		defer cancel()

		det, err := loader.Load(ctx)
		return modelLoadedMsg{model: det, err: err}
	}
}

// submit returns a command that uploads jpeg, journals the attempt and
// reports the classified outcome.
func (m Model) submit(epoch uint64, jpeg []byte, started time.Time) tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		id := d.NewID()

		ctx, cancel := context.WithTimeout(context.Background(), d.SubmitTimeout)
		outcome := d.Submitter.Submit(ctx, jpeg, id)
		cancel()

		record(d, model.Attempt{
			ID:         id,
			Epoch:      epoch,
			Outcome:    outcome.Kind,
			Status:     outcome.Status,
			Employee:   outcome.Employee,
			ErrorCode:  outcome.ErrorCode,
			Confidence: outcome.Confidence,
			StartedAt:  started,
			FinishedAt: d.Now(),
		})

		return submittedMsg{epoch: epoch, attemptID: id, outcome: outcome}
	}
}

// recordSkipped journals an attempt that never reached the network.
func (m Model) recordSkipped(started time.Time) tea.Cmd {
	d := m.deps
	epoch := m.state.Epoch
	return func() tea.Msg {
		record(d, model.Attempt{
			ID:         d.NewID(),
			Epoch:      epoch,
			Outcome:    model.OutcomeSkipped,
			StartedAt:  started,
			FinishedAt: d.Now(),
		})
		return nil
	}
}

// record writes a to the journal. Failures are logged only.
func record(d Deps, a model.Attempt) {
	if d.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := d.Journal.RecordAttempt(ctx, a); err != nil {
		d.Log.WithError(err).WithField("attempt", a.ID).Warn("journaling attempt")
	}
}
