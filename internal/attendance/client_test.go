package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUploadSendsMultipartImage(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/attendance/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-1" {
			t.Errorf("X-Request-ID = %q", got)
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("reading image field: %v", err)
		}
		defer file.Close()
		if header.Filename != "face.jpg" {
			t.Errorf("filename = %q, want face.jpg", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != string(jpeg) {
			t.Errorf("image bytes = %X, want %X", data, jpeg)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"Checkin successful","employee":"E1","confidence":0.87}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", time.Second)
	resp, err := c.Upload(context.Background(), jpeg, "req-1")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.Status != "Checkin successful" || resp.Employee != "E1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Confidence == nil || *resp.Confidence != 0.87 {
		t.Errorf("confidence = %v, want 0.87", resp.Confidence)
	}
}

func TestUploadReturnsAPIErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No face detected"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Upload(context.Background(), []byte{1}, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != CodeNoFace {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestUploadOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", time.Second).Upload(context.Background(), []byte{1}, ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"employee": "E1"}})
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL, "", time.Second).Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(records) != 1 || records[0].Employee != "E1" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestFindSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/attendance-summary/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"employee":"E0","checkin":"08:00:00"},
			{"employee":"E1","checkin":"09:00:00","checkout":"17:30:00"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)

	rec, err := c.FindSummary(context.Background(), "E1")
	if err != nil {
		t.Fatalf("FindSummary: %v", err)
	}
	if rec == nil || rec.Checkout != "17:30:00" {
		t.Errorf("unexpected record %+v", rec)
	}

	rec, err = c.FindSummary(context.Background(), "nobody")
	if err != nil || rec != nil {
		t.Errorf("FindSummary(nobody) = %+v, %v; want nil, nil", rec, err)
	}
}

func TestRetryAfterDurationBackoff(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{2, 4 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := retryAfterDuration(resp, tt.attempt); got != tt.want {
			t.Errorf("retryAfterDuration(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestUploadUndecodableBodyReturnsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Upload(context.Background(), []byte{1}, "")

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if decErr.StatusCode != http.StatusOK || decErr.Body != "<html>proxy</html>" {
		t.Errorf("decode error = %+v", decErr)
	}
}
