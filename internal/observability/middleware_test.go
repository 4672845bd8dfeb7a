package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"countonme/internal/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddlewareSetsHeaderAndContext(t *testing.T) {
	var ctxRequestID string

	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxRequestID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(r, h)

	headerRequestID := w.Result().Header.Get(RequestIDHeader)
	if headerRequestID == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}

	if _, err := uuid.Parse(headerRequestID); err != nil {
		t.Fatalf("expected header to contain UUID, got %q: %v", headerRequestID, err)
	}

	if ctxRequestID != headerRequestID {
		t.Fatalf("expected context request_id %q to match header %q", ctxRequestID, headerRequestID)
	}
}

func TestRequestIDMiddlewareReusesIncomingID(t *testing.T) {
	incoming := uuid.New().String()

	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{name: "valid uuid", header: incoming, reused: true},
		{name: "garbage", header: "not-a-uuid", reused: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			r := httptest.NewRequest(http.MethodGet, "/calculator/sessions/x", nil)
			r.Header.Set(RequestIDHeader, tc.header)
			w := testutil.ExecuteRequest(r, h)

			got := w.Result().Header.Get(RequestIDHeader)
			if (got == tc.header) != tc.reused {
				t.Fatalf("header %q: got request id %q, reused=%t", tc.header, got, tc.reused)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected UUID, got %q", got)
			}
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/health", want: false},
		{path: "/metrics", want: false},
		{path: "/calculator/evaluate", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			got := shouldTraceRequest(r)
			if got != tc.want {
				t.Fatalf("path %q: expected %t, got %t", tc.path, tc.want, got)
			}
		})
	}
}

func TestLoggingMiddlewareWritesCompletionLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	oldLogger := Logger
	Logger = zap.New(core)
	t.Cleanup(func() { Logger = oldLogger })

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	r := httptest.NewRequest(http.MethodPost, "/calculator/sessions/abc/digit", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-123"))
	_ = testutil.ExecuteRequest(r, h)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Message != "request completed" {
		t.Fatalf("expected message %q, got %q", "request completed", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["method"] != http.MethodPost {
		t.Fatalf("expected method %q, got %#v", http.MethodPost, fields["method"])
	}
	if fields["path"] != "/calculator/sessions/abc/digit" {
		t.Fatalf("expected path %q, got %#v", "/calculator/sessions/abc/digit", fields["path"])
	}
	if fields["status"] != int64(http.StatusUnprocessableEntity) {
		t.Fatalf("expected status %d, got %#v", http.StatusUnprocessableEntity, fields["status"])
	}
	if fields["request_id"] != "req-123" {
		t.Fatalf("expected request_id %q, got %#v", "req-123", fields["request_id"])
	}
}
