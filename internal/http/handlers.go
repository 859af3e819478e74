package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Vidnolunovich/vo-mfa-service/internal/app"
	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/pipeline"
)

// handlers serves the public alignment endpoints.
type handlers struct {
	app *app.Application
}

// align handles POST /align.
func (h *handlers) align(w http.ResponseWriter, r *http.Request) {
	if !h.app.Ready() {
		writeError(w, http.StatusServiceUnavailable, "not_ready",
			"engine verification has not completed")
		return
	}

	// Base64 inflates the payload by 4/3; the slack covers the JSON
	// envelope around it.
	maxBody := h.app.Cfg.Audio.MaxEncodedBytes*4/3 + 4096
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var req models.AlignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error",
			"request body must be valid JSON")
		return
	}

	refine := req.RefineEndpoints == nil || *req.RefineEndpoints
	result, err := h.app.Pipeline.Process(r.Context(), pipeline.Request{
		AudioBase64: req.AudioBase64,
		Transcript:  req.Transcript,
		Language:    req.Language,
		SampleRate:  req.SampleRate,
		Refine:      refine,
	})
	if err != nil {
		writeAlignError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AlignResponse{
		Words:            result.Words,
		TotalDuration:    result.TotalDuration,
		ProcessingTimeMs: result.ProcessingTimeMs,
		ModelUsed:        result.ModelUsed,
		Refined:          result.Refined,
	})
}

// health handles GET /health.
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	if !h.app.Ready() {
		writeError(w, http.StatusServiceUnavailable, "not_ready",
			"engine verification has not completed")
		return
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:       "healthy",
		ModelsLoaded: aligner.Languages(),
		Version:      app.Version,
	})
}

// info handles GET /.
func (h *handlers) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.ServiceInfo{
		Service:   app.DisplayName,
		Version:   app.Version,
		Endpoints: []string{"/health", "/align"},
	})
}

// writeAlignError maps pipeline failures onto the error envelope.
func writeAlignError(w http.ResponseWriter, err error) {
	var ve *pipeline.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "validation_error", ve.Message)
		return
	}
	var de *audio.DecodeError
	if errors.As(err, &de) {
		writeError(w, http.StatusBadRequest, "decode_error", de.Message)
		return
	}
	var ae *aligner.AlignmentError
	if errors.As(err, &ae) {
		writeError(w, http.StatusInternalServerError, "alignment_error", ae.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "alignment_error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: kind, Message: message})
}
