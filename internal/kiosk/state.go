package kiosk

import "fmt"

// Phase is the coarse screen the kiosk is on.
type Phase int

const (
	// PhaseIdle is the start screen, before the camera is opened.
	PhaseIdle Phase = iota
	// PhaseScanning means the camera is live and the detector is polling.
	PhaseScanning
	// PhaseSubmitting means a frame is in flight; polling is paused.
	PhaseSubmitting
	// PhaseStopped is a terminal screen selected by StopReason.
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScanning:
		return "scanning"
	case PhaseSubmitting:
		return "submitting"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StopReason selects the message shown on the stopped screen.
type StopReason string

const (
	ReasonIdle      StopReason = "idle"
	ReasonCompleted StopReason = "completed"
	ReasonCancelled StopReason = "cancelled"
	ReasonError     StopReason = "error"
)

// State is the single source of truth for the capture flow. It only
// changes through the transition methods below, each of which returns
// the next state and whether the transition was legal. An illegal
// transition returns the receiver unchanged.
type State struct {
	Phase Phase

	// Reason is meaningful only in PhaseStopped.
	Reason StopReason

	// FaceDetected is meaningful only while the camera is active.
	FaceDetected bool

	// Epoch increases on every Start. Asynchronous results carry the
	// epoch they were issued under and are dropped when it is stale.
	Epoch uint64

	// Settling marks a submission whose reply was handled but whose lock
	// is held until a delayed release.
	Settling bool
}

// NewState returns the idle start state.
func NewState() State {
	return State{Phase: PhaseIdle, Reason: ReasonIdle}
}

func (s State) String() string {
	if s.Phase == PhaseStopped {
		return fmt.Sprintf("stopped:%s", s.Reason)
	}
	return s.Phase.String()
}

// CameraActive reports whether the camera should be running.
func (s State) CameraActive() bool {
	return s.Phase == PhaseScanning || s.Phase == PhaseSubmitting
}

// InFlight reports whether the submission lock is held.
func (s State) InFlight() bool {
	return s.Phase == PhaseSubmitting
}

// Start opens a new camera session: idle → scanning.
func (s State) Start() (State, bool) {
	if s.Phase != PhaseIdle {
		return s, false
	}
	return State{
		Phase:  PhaseScanning,
		Reason: ReasonIdle,
		Epoch:  s.Epoch + 1,
	}, true
}

// SetFace records the detector's answer. The second result reports
// whether the flag changed, so callers can skip redundant work.
func (s State) SetFace(detected bool) (State, bool) {
	if !s.CameraActive() || s.FaceDetected == detected {
		return s, false
	}
	s.FaceDetected = detected
	return s, true
}

// BeginSubmit takes the submission lock: scanning → submitting.
func (s State) BeginSubmit() (State, bool) {
	if s.Phase != PhaseScanning {
		return s, false
	}
	s.Phase = PhaseSubmitting
	s.Settling = false
	return s, true
}

// Complete ends the session after a recorded attendance:
// submitting → stopped:completed.
func (s State) Complete() (State, bool) {
	if s.Phase != PhaseSubmitting || s.Settling {
		return s, false
	}
	return s.stopped(ReasonCompleted), true
}

// Settle keeps the lock after an unrecognized reply until Release.
func (s State) Settle() (State, bool) {
	if s.Phase != PhaseSubmitting || s.Settling {
		return s, false
	}
	s.Settling = true
	return s, true
}

// Release drops the lock and resumes scanning: submitting → scanning.
func (s State) Release() (State, bool) {
	if s.Phase != PhaseSubmitting {
		return s, false
	}
	s.Phase = PhaseScanning
	s.Settling = false
	return s, true
}

// Skip abandons a submission that never reached the network, for
// example because no frame could be captured: submitting → scanning.
func (s State) Skip() (State, bool) {
	if s.Settling {
		return s, false
	}
	return s.Release()
}

// Fail ends the session after a failed submission:
// submitting → stopped:error.
func (s State) Fail() (State, bool) {
	if s.Phase != PhaseSubmitting || s.Settling {
		return s, false
	}
	return s.stopped(ReasonError), true
}

// Cancel is the user stopping the camera: scanning → stopped:cancelled.
func (s State) Cancel() (State, bool) {
	if s.Phase != PhaseScanning {
		return s, false
	}
	return s.stopped(ReasonCancelled), true
}

// CameraFailed ends a session whose camera could not be opened:
// scanning → stopped:error.
func (s State) CameraFailed() (State, bool) {
	if s.Phase != PhaseScanning {
		return s, false
	}
	return s.stopped(ReasonError), true
}

// ReturnToIdle is the automatic exit from stopped:completed.
func (s State) ReturnToIdle() (State, bool) {
	if s.Phase != PhaseStopped || s.Reason != ReasonCompleted {
		return s, false
	}
	return s.idle(), true
}

// Retry leaves any stopped screen for the start screen.
func (s State) Retry() (State, bool) {
	if s.Phase != PhaseStopped {
		return s, false
	}
	return s.idle(), true
}

func (s State) stopped(reason StopReason) State {
	return State{Phase: PhaseStopped, Reason: reason, Epoch: s.Epoch}
}

func (s State) idle() State {
	return State{Phase: PhaseIdle, Reason: ReasonIdle, Epoch: s.Epoch}
}
