package model

import "time"

// AttendanceResponse is the JSON body of a successful upload.
type AttendanceResponse struct {
	Status     string   `json:"status"`
	Employee   string   `json:"employee,omitempty"`
	Message    string   `json:"message,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
	Photo      string   `json:"photo,omitempty"`
}

// AttendanceError is the JSON body the backend returns on failure.
type AttendanceError struct {
	Error string `json:"error"`
}

// SummaryRecord is one entry of the attendance summary endpoint.
type SummaryRecord struct {
	Employee string `json:"employee"`
	Checkin  string `json:"checkin,omitempty"`
	Checkout string `json:"checkout,omitempty"`
}

// OutcomeKind classifies how a submission ended.
type OutcomeKind string

const (
	OutcomeAlreadyMarked OutcomeKind = "already_marked"
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeUnknown       OutcomeKind = "unknown"
	OutcomeFailure       OutcomeKind = "failure"
	// OutcomeSkipped means no frame could be captured, nothing was sent.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Attempt is a journaled attendance submission.
type Attempt struct {
	ID         string      `db:"id"`
	Epoch      uint64      `db:"epoch"`
	Outcome    OutcomeKind `db:"outcome"`
	Status     string      `db:"status"`
	Employee   string      `db:"employee"`
	ErrorCode  string      `db:"error_code"`
	Confidence *float64    `db:"confidence"`
	StartedAt  time.Time   `db:"started_at"`
	FinishedAt time.Time   `db:"finished_at"`
}
