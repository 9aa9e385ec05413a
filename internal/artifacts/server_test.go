package artifacts

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(dir, logger), dir
}

func TestResolve_RejectsTraversal(t *testing.T) {
	s, _ := testServer(t)

	bad := []string{"", "../secret", "a/b.mp4", ".hidden", "..", "/etc/passwd"}
	for _, name := range bad {
		if _, err := s.Resolve(name); err == nil {
			t.Errorf("Resolve(%q) succeeded, want error", name)
		}
	}

	if _, err := s.Resolve("abc12345678.mp4"); err != nil {
		t.Errorf("Resolve(plain name) error = %v", err)
	}
}

func TestServeArtifact_FullFile(t *testing.T) {
	s, dir := testServer(t)
	if err := os.WriteFile(filepath.Join(dir, "abc.mp4"), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/artifacts/abc.mp4", nil)

	if err := s.ServeArtifact(rr, req, "abc.mp4"); err != nil {
		t.Fatalf("ServeArtifact() error = %v", err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "0123456789" {
		t.Errorf("body = %q, want full file", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
}

func TestServeArtifact_RangeRequest(t *testing.T) {
	s, dir := testServer(t)
	if err := os.WriteFile(filepath.Join(dir, "abc.mp4"), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/artifacts/abc.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")

	if err := s.ServeArtifact(rr, req, "abc.mp4"); err != nil {
		t.Fatalf("ServeArtifact() error = %v", err)
	}
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if rr.Body.String() != "2345" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "2345")
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, want %q", got, "bytes 2-5/10")
	}
}

func TestServeArtifact_NotFound(t *testing.T) {
	s, _ := testServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/artifacts/missing.mp4", nil)

	if err := s.ServeArtifact(rr, req, "missing.mp4"); err != nil {
		t.Fatalf("ServeArtifact() error = %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestServeArtifact_UnsatisfiableRange(t *testing.T) {
	s, dir := testServer(t)
	if err := os.WriteFile(filepath.Join(dir, "abc.mp4"), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/artifacts/abc.mp4", nil)
	req.Header.Set("Range", "bytes=100-")

	if err := s.ServeArtifact(rr, req, "abc.mp4"); err != nil {
		t.Fatalf("ServeArtifact() error = %v", err)
	}
	if rr.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d, want 416", rr.Code)
	}
}
