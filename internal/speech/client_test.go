package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineFor(t *testing.T) {
	tests := []struct {
		voice string
		want  string
	}{
		{"Joanna", EngineNeural},
		{"Takumi", EngineNeural},
		{"Celine", EngineStandard},
		{"", EngineStandard},
	}
	for _, tt := range tests {
		if got := EngineFor(tt.voice); got != tt.want {
			t.Errorf("EngineFor(%q) = %q, want %q", tt.voice, got, tt.want)
		}
	}
}

func TestSynthesize_PreferredEngine(t *testing.T) {
	var gotReq synthesisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	audio, contentType, err := c.Synthesize(context.Background(), "hola", "Lucia", "es")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q, want mp3-bytes", audio)
	}
	if contentType != "audio/mpeg" {
		t.Errorf("contentType = %q, want audio/mpeg", contentType)
	}
	if gotReq.Engine != EngineNeural {
		t.Errorf("engine = %q, want %q", gotReq.Engine, EngineNeural)
	}
	if gotReq.Language != "es" {
		t.Errorf("language = %q, want es", gotReq.Language)
	}
}

func TestSynthesize_FallbackEngineRetry(t *testing.T) {
	var engines []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		json.NewDecoder(r.Body).Decode(&req)
		engines = append(engines, req.Engine)
		if req.Engine == EngineNeural {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte("fallback-audio"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	audio, _, err := c.Synthesize(context.Background(), "hello", "Joanna", "en")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "fallback-audio" {
		t.Errorf("audio = %q, want fallback-audio", audio)
	}
	if len(engines) != 2 || engines[0] != EngineNeural || engines[1] != EngineStandard {
		t.Errorf("engines tried = %v, want [neural standard]", engines)
	}
}

func TestSynthesize_BothEnginesFail(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("synthesis backend down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	_, _, err := c.Synthesize(context.Background(), "hello", "Joanna", "en")

	var se *SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("Synthesize() error = %v, want *SynthesisError", err)
	}
	// The surfaced error is the first attempt's, on the preferred engine.
	if se.Engine != EngineNeural {
		t.Errorf("error engine = %q, want %q", se.Engine, EngineNeural)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want exactly 2 (one retry)", attempts)
	}
}
