package kiosk

import "testing"

// step applies a transition and fails the test if it was rejected.
func step(t *testing.T, s State, name string, fn func(State) (State, bool)) State {
	t.Helper()
	next, ok := fn(s)
	if !ok {
		t.Fatalf("%s rejected from %s", name, s)
	}
	return next
}

func TestHappyPath(t *testing.T) {
	s := NewState()
	s = step(t, s, "Start", State.Start)
	if s.Phase != PhaseScanning || s.Epoch != 1 {
		t.Fatalf("after Start: %+v", s)
	}

	s, changed := s.SetFace(true)
	if !changed || !s.FaceDetected {
		t.Fatal("SetFace(true) should change the flag")
	}
	if _, changed := s.SetFace(true); changed {
		t.Error("SetFace with the same value must report no change")
	}

	s = step(t, s, "BeginSubmit", State.BeginSubmit)
	if !s.InFlight() {
		t.Fatal("BeginSubmit must take the lock")
	}
	if _, ok := s.BeginSubmit(); ok {
		t.Error("second BeginSubmit must be rejected while in flight")
	}

	s = step(t, s, "Complete", State.Complete)
	if s.String() != "stopped:completed" || s.FaceDetected || s.CameraActive() {
		t.Fatalf("after Complete: %+v", s)
	}

	s = step(t, s, "ReturnToIdle", State.ReturnToIdle)
	if s.Phase != PhaseIdle || s.Epoch != 1 {
		t.Fatalf("after ReturnToIdle: %+v", s)
	}

	s = step(t, s, "Start", State.Start)
	if s.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", s.Epoch)
	}
}

func TestUnknownSettlesThenResumes(t *testing.T) {
	s := step(t, NewState(), "Start", State.Start)
	s = step(t, s, "BeginSubmit", State.BeginSubmit)
	s = step(t, s, "Settle", State.Settle)

	if !s.InFlight() || !s.Settling {
		t.Fatalf("settling state must keep the lock: %+v", s)
	}
	if _, ok := s.Complete(); ok {
		t.Error("Complete must be rejected while settling")
	}
	if _, ok := s.Fail(); ok {
		t.Error("Fail must be rejected while settling")
	}

	s = step(t, s, "Release", State.Release)
	if s.Phase != PhaseScanning || s.Settling {
		t.Errorf("after Release: %+v", s)
	}
}

func TestSkipReturnsToScanning(t *testing.T) {
	s := step(t, NewState(), "Start", State.Start)
	s = step(t, s, "BeginSubmit", State.BeginSubmit)
	s = step(t, s, "Skip", State.Skip)
	if s.Phase != PhaseScanning {
		t.Fatalf("after Skip: %+v", s)
	}

	s = step(t, s, "BeginSubmit", State.BeginSubmit)
	s = step(t, s, "Settle", State.Settle)
	if _, ok := s.Skip(); ok {
		t.Error("Skip must be rejected while settling")
	}
}

func TestStopReasons(t *testing.T) {
	scanning := step(t, NewState(), "Start", State.Start)
	submitting := step(t, scanning, "BeginSubmit", State.BeginSubmit)

	tests := []struct {
		name   string
		from   State
		fn     func(State) (State, bool)
		reason StopReason
	}{
		{"cancel", scanning, State.Cancel, ReasonCancelled},
		{"camera failed", scanning, State.CameraFailed, ReasonError},
		{"fail", submitting, State.Fail, ReasonError},
		{"complete", submitting, State.Complete, ReasonCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := step(t, tt.from, tt.name, tt.fn)
			if s.Phase != PhaseStopped || s.Reason != tt.reason {
				t.Fatalf("got %s, want stopped:%s", s, tt.reason)
			}
			idle := step(t, s, "Retry", State.Retry)
			if idle.Phase != PhaseIdle || idle.Reason != ReasonIdle {
				t.Errorf("Retry: %+v", idle)
			}
		})
	}
}

func TestIllegalTransitionsAreNoOps(t *testing.T) {
	idle := NewState()
	scanning := step(t, idle, "Start", State.Start)
	submitting := step(t, scanning, "BeginSubmit", State.BeginSubmit)
	cancelled := step(t, scanning, "Cancel", State.Cancel)

	tests := []struct {
		name string
		from State
		fn   func(State) (State, bool)
	}{
		{"start while scanning", scanning, State.Start},
		{"cancel while submitting", submitting, State.Cancel},
		{"cancel while idle", idle, State.Cancel},
		{"submit while idle", idle, State.BeginSubmit},
		{"complete while scanning", scanning, State.Complete},
		{"retry while scanning", scanning, State.Retry},
		{"auto-return from cancelled", cancelled, State.ReturnToIdle},
		{"release while idle", idle, State.Release},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := tt.fn(tt.from)
			if ok {
				t.Fatal("transition should be rejected")
			}
			if next != tt.from {
				t.Errorf("rejected transition changed state: %+v -> %+v", tt.from, next)
			}
		})
	}
}

func TestSetFaceIgnoredWhenCameraInactive(t *testing.T) {
	if _, changed := NewState().SetFace(true); changed {
		t.Error("SetFace must be ignored on the idle screen")
	}
}
