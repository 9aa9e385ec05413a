// Package artifacts serves produced media files (full videos, transcripts,
// clips) out of the working directory with HTTP Range support, so the
// vocabulary application can seek inside clips during playback.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadName rejects artifact names that try to escape the working directory.
var ErrBadName = errors.New("invalid artifact name")

type Server struct {
	mediaDir string
	logger   *slog.Logger
}

func NewServer(mediaDir string, logger *slog.Logger) *Server {
	return &Server{mediaDir: mediaDir, logger: logger}
}

// Resolve maps an artifact name to its on-disk path, refusing anything
// that is not a bare filename inside the working directory.
func (s *Server) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrBadName
	}
	return filepath.Join(s.mediaDir, name), nil
}

// ServeArtifact streams the named artifact, honouring a single Range header.
func (s *Server) ServeArtifact(w http.ResponseWriter, r *http.Request, name string) error {
	filePath, err := s.Resolve(name)
	if err != nil {
		http.Error(w, "invalid artifact name", http.StatusBadRequest)
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rangeHeader := r.Header.Get("Range")
	parsedRange, err := ParseRange(rangeHeader, size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsedRange.ContentLength())
	return nil
}
