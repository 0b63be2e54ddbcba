package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-nextquest/internal/config"
	"backend-nextquest/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0", MaxUploadBytes: 1 << 20}, nil, nil, blobs)
	t.Cleanup(s.Stream.Close)
	return s
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, _ := s.App.Test(req)
	if got := resp.Header.Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected echoed id, got %q", got)
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "nextquest_") {
		t.Fatalf("expected prometheus output, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/discover/"},
		{http.MethodGet, "/favorites/"},
		{http.MethodPost, "/favorites/spot-1/toggle"},
		{http.MethodPut, "/position/"},
		{http.MethodPost, "/spots/"},
		{http.MethodPost, "/spots/spot-1/reviews/"},
		{http.MethodGet, "/auth/me"},
	} {
		resp, err := s.App.Test(httptest.NewRequest(r.method, r.path, nil))
		if err != nil {
			t.Fatalf("%s %s: %v", r.method, r.path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", r.method, r.path, resp.StatusCode)
		}
	}
}
