package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/attendance-kiosk/internal/model"
)

const (
	uploadPath  = "/api/attendance/"
	summaryPath = "/api/attendance-summary/"
)

// APIError is returned for any non-2xx response. Code holds the "error"
// field of the JSON body when the backend supplied one.
type APIError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("attendance API error (%d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is returned when a 2xx response body does not decode into
// the expected shape.
type DecodeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %d response: %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client is a thin HTTP client for the attendance backend. It handles
// optional Bearer token authentication, multipart uploads, and automatic
// retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new attendance client rooted at baseURL.
// An empty token disables the Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// Upload posts a JPEG frame as the multipart field "image" and decodes
// the attendance response.
func (c *Client) Upload(
	ctx context.Context,
	jpeg []byte,
	requestID string,
) (*model.AttendanceResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="face.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating image part: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, fmt.Errorf("writing image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var resp model.AttendanceResponse
	err = c.do(ctx, http.MethodPost, uploadPath, w.FormDataContentType(), buf.Bytes(), requestID, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary fetches today's attendance summary for all employees.
func (c *Client) Summary(ctx context.Context) ([]model.SummaryRecord, error) {
	var records []model.SummaryRecord
	if err := c.do(ctx, http.MethodGet, summaryPath, "", nil, "", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindSummary returns the summary record for employee, or nil when the
// summary has no entry for them.
func (c *Client) FindSummary(
	ctx context.Context,
	employee string,
) (*model.SummaryRecord, error) {
	records, err := c.Summary(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Employee == employee {
			return &records[i], nil
		}
	}
	return nil, nil
}

// do builds the request, handles auth and rate limiting with
// exponential backoff, and decodes the JSON response into result.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	contentType string,
	body []byte,
	requestID string,
	result interface{},
) error {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Body:       string(respBody),
			}
			var errBody model.AttendanceError
			if json.Unmarshal(respBody, &errBody) == nil {
				apiErr.Code = errBody.Error
			}
			return apiErr
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return &DecodeError{
				StatusCode: resp.StatusCode,
				Body:       string(respBody),
				Err:        fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err),
			}
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
