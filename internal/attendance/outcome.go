package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/attendance-kiosk/internal/model"
)

// Dedupe keys for the notifications a submission can raise.
const (
	KeyAlreadyMarked = "attendance-already-marked"
	KeySuccess       = "attendance-success"
	KeyUnknown       = "attendance-unknown"
	KeyError         = "attendance-error"
)

// Backend error codes with dedicated messages.
const (
	CodeNoFace        = "No face detected"
	CodeNotRecognized = "Face not recognized"
)

const notMarked = "Not marked"

// Notice describes the notification a submission outcome should raise.
type Notice struct {
	Category model.Category
	Title    string
	Message  string
	Key      string
	Variant  model.Variant
	Payload  model.Payload
	// Duration is zero for the notification surface default.
	Duration time.Duration
}

// Outcome is the interpreted result of one submission.
type Outcome struct {
	Kind       model.OutcomeKind
	Notice     Notice
	Status     string
	Employee   string
	ErrorCode  string
	Confidence *float64
}

// API is the subset of the attendance client a Pipeline needs.
type API interface {
	Upload(ctx context.Context, jpeg []byte, requestID string) (*model.AttendanceResponse, error)
	FindSummary(ctx context.Context, employee string) (*model.SummaryRecord, error)
}

// Pipeline uploads frames and turns backend replies into outcomes.
type Pipeline struct {
	api API
	log logrus.FieldLogger
}

// NewPipeline creates a Pipeline over api.
func NewPipeline(api API, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{api: api, log: log}
}

// Submit uploads jpeg and classifies the reply. It never returns an
// error; failures become an OutcomeFailure. A successful response whose
// body cannot be decoded is classified like a reply with no status.
func (p *Pipeline) Submit(ctx context.Context, jpeg []byte, requestID string) Outcome {
	resp, err := p.api.Upload(ctx, jpeg, requestID)
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		p.log.WithError(err).WithField("attempt", requestID).Warn("unexpected attendance reply")
		return p.Interpret(ctx, &model.AttendanceResponse{})
	}
	if err != nil {
		p.log.WithError(err).WithField("attempt", requestID).Warn("attendance upload failed")
		return Failure(err)
	}
	return p.Interpret(ctx, resp)
}

// Interpret classifies a decoded upload response. An "Already marked"
// reply triggers a summary lookup for the employee's times.
func (p *Pipeline) Interpret(ctx context.Context, resp *model.AttendanceResponse) Outcome {
	out := Outcome{
		Status:     resp.Status,
		Employee:   resp.Employee,
		Confidence: resp.Confidence,
	}

	switch {
	case resp.Status == "Already marked":
		record, err := p.api.FindSummary(ctx, resp.Employee)
		if err != nil {
			p.log.WithError(err).WithField("employee", resp.Employee).Error("fetching attendance summary")
			record = nil
		}
		out.Kind = model.OutcomeAlreadyMarked
		out.Notice = alreadyMarkedNotice(resp, record)

	case strings.Contains(resp.Status, "successful"):
		title := "Check-Out Successful"
		if strings.Contains(strings.ToLower(resp.Status), "checkin") {
			title = "Check-In Successful"
		}
		out.Kind = model.OutcomeSuccess
		out.Notice = Notice{
			Category: model.CategorySuccess,
			Title:    title,
			Message:  resp.Message,
			Key:      KeySuccess,
			Variant:  model.VariantHero,
			Payload: model.Payload{
				Confidence: resp.Confidence,
				Timestamp:  resp.Timestamp,
				Photo:      resp.Photo,
			},
			Duration: 6 * time.Second,
		}

	default:
		out.Kind = model.OutcomeUnknown
		out.Notice = Notice{
			Category: model.CategoryError,
			Title:    "Unknown Response",
			Message:  "Received unexpected response from server.",
			Key:      KeyUnknown,
		}
	}

	return out
}

func alreadyMarkedNotice(resp *model.AttendanceResponse, record *model.SummaryRecord) Notice {
	checkin, checkout := notMarked, notMarked
	if record != nil {
		if record.Checkin != "" {
			checkin = FormatClock(record.Checkin)
		}
		if record.Checkout != "" {
			checkout = FormatClock(record.Checkout)
		}
	}

	msg := fmt.Sprintf(
		"Hello %s!\nYour attendance for today is already recorded:\n\nCheck-in: %s\nCheck-out: %s",
		resp.Employee, checkin, checkout,
	)

	return Notice{
		Category: model.CategoryInfo,
		Title:    "Already Checked In/Out",
		Message:  msg,
		Key:      KeyAlreadyMarked,
		Variant:  model.VariantHero,
		Payload:  model.Payload{Photo: resp.Photo},
		Duration: 8 * time.Second,
	}
}

// Failure maps a transport or server error to a failure outcome.
func Failure(err error) Outcome {
	title, msg := "Connection Error", "Server connection failed"

	var apiErr *APIError
	code := ""
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		code = apiErr.Code
		switch code {
		case CodeNoFace:
			title = "No Face Found"
			msg = "Please ensure your face is clearly visible in the frame"
		case CodeNotRecognized:
			title = "Unregistered Face"
			msg = "Your face is not registered in the system. Please contact administrator."
		default:
			title = "Error"
			msg = code
		}
	}

	return Outcome{
		Kind:      model.OutcomeFailure,
		ErrorCode: code,
		Notice: Notice{
			Category: model.CategoryError,
			Title:    title,
			Message:  msg,
			Key:      KeyError,
			Duration: 10 * time.Second,
		},
	}
}

// clockLayouts are the time-of-day formats the summary endpoint uses.
var clockLayouts = []string{
	"15:04:05.999999",
	"15:04:05",
	"15:04",
}

// FormatClock renders a server time of day such as "09:00:00" as
// "09:00 AM". Unparseable input is returned unchanged.
func FormatClock(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("03:04 PM")
		}
	}
	return s
}
