package attendance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/attendance-kiosk/internal/model"
)

// fakeAPI is an in-memory API with canned replies.
type fakeAPI struct {
	resp       *model.AttendanceResponse
	uploadErr  error
	record     *model.SummaryRecord
	summaryErr error
	lookups    []string
}

func (f *fakeAPI) Upload(context.Context, []byte, string) (*model.AttendanceResponse, error) {
	return f.resp, f.uploadErr
}

func (f *fakeAPI) FindSummary(_ context.Context, employee string) (*model.SummaryRecord, error) {
	f.lookups = append(f.lookups, employee)
	return f.record, f.summaryErr
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func floatPtr(f float64) *float64 { return &f }

func TestAlreadyMarkedFormatsSummaryTimes(t *testing.T) {
	api := &fakeAPI{
		resp:   &model.AttendanceResponse{Status: "Already marked", Employee: "E1", Photo: "/media/e1.jpg"},
		record: &model.SummaryRecord{Employee: "E1", Checkin: "09:00:00"},
	}

	out := NewPipeline(api, quietLogger()).Submit(context.Background(), []byte{1}, "a")

	if out.Kind != model.OutcomeAlreadyMarked {
		t.Fatalf("kind = %s, want already_marked", out.Kind)
	}
	if len(api.lookups) != 1 || api.lookups[0] != "E1" {
		t.Errorf("summary lookups = %v", api.lookups)
	}
	n := out.Notice
	if !strings.Contains(n.Message, "Check-in: 09:00 AM") {
		t.Errorf("message missing check-in time: %q", n.Message)
	}
	if !strings.Contains(n.Message, "Check-out: Not marked") {
		t.Errorf("message missing check-out fallback: %q", n.Message)
	}
	if !strings.HasPrefix(n.Message, "Hello E1!\n") {
		t.Errorf("message greeting = %q", n.Message)
	}
	if n.Category != model.CategoryInfo || n.Variant != model.VariantHero || n.Duration != 8*time.Second {
		t.Errorf("unexpected notice %+v", n)
	}
	if n.Key != KeyAlreadyMarked || n.Payload.Photo != "/media/e1.jpg" {
		t.Errorf("unexpected key/photo %+v", n)
	}
}

func TestAlreadyMarkedSummaryFailureFallsBack(t *testing.T) {
	api := &fakeAPI{
		resp:       &model.AttendanceResponse{Status: "Already marked", Employee: "E1"},
		summaryErr: errors.New("boom"),
	}

	out := NewPipeline(api, quietLogger()).Submit(context.Background(), nil, "")
	if !strings.Contains(out.Notice.Message, "Check-in: Not marked\nCheck-out: Not marked") {
		t.Errorf("message = %q", out.Notice.Message)
	}
}

func TestSuccessfulStatus(t *testing.T) {
	tests := []struct {
		status string
		title  string
	}{
		{"Checkin successful", "Check-In Successful"},
		{"CheckIn successful", "Check-In Successful"},
		{"Checkout successful", "Check-Out Successful"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			api := &fakeAPI{resp: &model.AttendanceResponse{
				Status:     tt.status,
				Message:    "Welcome",
				Confidence: floatPtr(0.87),
				Timestamp:  "2026-10-14T09:00:00Z",
			}}
			out := NewPipeline(api, quietLogger()).Submit(context.Background(), nil, "")

			if out.Kind != model.OutcomeSuccess {
				t.Fatalf("kind = %s", out.Kind)
			}
			n := out.Notice
			if n.Title != tt.title {
				t.Errorf("title = %q, want %q", n.Title, tt.title)
			}
			if n.Message != "Welcome" || n.Duration != 6*time.Second || n.Variant != model.VariantHero {
				t.Errorf("unexpected notice %+v", n)
			}
			if n.Payload.Confidence == nil || *n.Payload.Confidence != 0.87 {
				t.Errorf("confidence not carried: %+v", n.Payload)
			}
			if len(api.lookups) != 0 {
				t.Errorf("success must not fetch the summary")
			}
		})
	}
}

func TestUnknownStatus(t *testing.T) {
	api := &fakeAPI{resp: &model.AttendanceResponse{Status: "Pending review"}}
	out := NewPipeline(api, quietLogger()).Submit(context.Background(), nil, "")

	if out.Kind != model.OutcomeUnknown {
		t.Fatalf("kind = %s", out.Kind)
	}
	if out.Notice.Title != "Unknown Response" || out.Notice.Category != model.CategoryError {
		t.Errorf("unexpected notice %+v", out.Notice)
	}
	if out.Notice.Duration != 0 {
		t.Errorf("unknown notice should use the default duration")
	}
}

func TestUnexpectedReplyShapeIsUnknown(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html page", "<html><body>Bad Gateway</body></html>"},
		{"json array", "[]"},
		{"numeric status", `{"status":5}`},
		{"bare string", `"ok"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "", time.Second)
			out := NewPipeline(client, quietLogger()).Submit(context.Background(), []byte{1}, "a")

			if out.Kind != model.OutcomeUnknown {
				t.Fatalf("kind = %s, want unknown", out.Kind)
			}
			if out.Notice.Title != "Unknown Response" {
				t.Errorf("title = %q", out.Notice.Title)
			}
		})
	}
}

func TestFailureMapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		title string
		msg   string
	}{
		{
			name:  "no face",
			err:   &APIError{StatusCode: 400, Code: CodeNoFace},
			title: "No Face Found",
			msg:   "Please ensure your face is clearly visible in the frame",
		},
		{
			name:  "not recognized",
			err:   &APIError{StatusCode: 404, Code: CodeNotRecognized},
			title: "Unregistered Face",
			msg:   "Your face is not registered in the system. Please contact administrator.",
		},
		{
			name:  "other code",
			err:   &APIError{StatusCode: 500, Code: "Database offline"},
			title: "Error",
			msg:   "Database offline",
		},
		{
			name:  "no body",
			err:   &APIError{StatusCode: 502, Body: "<html>"},
			title: "Connection Error",
			msg:   "Server connection failed",
		},
		{
			name:  "transport",
			err:   errors.New("dial tcp: connection refused"),
			title: "Connection Error",
			msg:   "Server connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewPipeline(&fakeAPI{uploadErr: tt.err}, quietLogger()).Submit(context.Background(), nil, "")
			if out.Kind != model.OutcomeFailure {
				t.Fatalf("kind = %s", out.Kind)
			}
			if out.Notice.Title != tt.title || out.Notice.Message != tt.msg {
				t.Errorf("got %q / %q, want %q / %q", out.Notice.Title, out.Notice.Message, tt.title, tt.msg)
			}
			if out.Notice.Key != KeyError || out.Notice.Duration != 10*time.Second {
				t.Errorf("unexpected notice %+v", out.Notice)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[string]string{
		"09:00:00":        "09:00 AM",
		"17:45:10":        "05:45 PM",
		"00:05":           "12:05 AM",
		"12:30:00.123456": "12:30 PM",
		"garbage":         "garbage",
	}
	for in, want := range tests {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%q) = %q, want %q", in, got, want)
		}
	}
}
