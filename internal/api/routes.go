package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lexitube/lexitube-ingest/internal/config"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	r.Get("/health", healthHandler(cfg))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Post("/ingest", ingestHandler(cfg))
		r.Get("/ingests", listIngestsHandler(cfg))
		r.Get("/ingests/{id}", getIngestHandler(cfg))
		r.Get("/artifacts/{name}", artifactHandler(cfg))
		r.Post("/speech", speechHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func ingestHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		result, err := cfg.IngestService.Ingest(r.Context(), req.ToIngestRequest())
		if err != nil {
			writeIngestError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ResultToResponse(result))
	}
}

func listIngestsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.Repository.ListIngests(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list ingests", "INTERNAL_ERROR")
			return
		}

		resp := RecordsResponse{Ingests: make([]RecordResponse, len(records))}
		for i, rec := range records {
			resp.Ingests[i] = RecordToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getIngestHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "ingest id required", "BAD_REQUEST")
			return
		}

		rec, err := cfg.Repository.GetIngest(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if rec == nil {
			WriteError(w, http.StatusNotFound, "ingest not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, RecordToResponse(rec))
	}
}

func artifactHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			WriteError(w, http.StatusBadRequest, "artifact name required", "BAD_REQUEST")
			return
		}

		if err := cfg.ArtifactServer.ServeArtifact(w, r, name); err != nil {
			cfg.Logger.Error("artifact serve error", "error", err, "name", name)
		}
	}
}

func speechHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.SpeechClient == nil {
			WriteError(w, http.StatusServiceUnavailable, "speech synthesis is not configured", "SPEECH_DISABLED")
			return
		}

		var req SpeechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Text == "" {
			WriteError(w, http.StatusBadRequest, "text is required", "BAD_REQUEST")
			return
		}
		if req.Voice == "" {
			WriteError(w, http.StatusBadRequest, "voice is required", "BAD_REQUEST")
			return
		}

		audio, contentType, err := cfg.SpeechClient.Synthesize(r.Context(), req.Text, req.Voice, req.Language)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "SPEECH_FAILED")
			return
		}

		if cfg.Metrics != nil {
			cfg.Metrics.IncSpeechSyntheses()
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(audio)
	}
}
