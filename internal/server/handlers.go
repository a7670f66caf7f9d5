package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/scoring"
)

// Error codes returned in the "error" field.
const (
	codeBadRequest       = "bad_request"
	codeMalformedURL     = "malformed_url"
	codeSchemaMismatch   = "schema_mismatch"
	codeModelUnavailable = "model_unavailable"
	codeTooLarge         = "request_too_large"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal"
)

// healthResponse is the body of a successful /healthz answer.
type healthResponse struct {
	Status       string  `json:"status"`
	ModelVersion string  `json:"model_version,omitempty"`
	Threshold    float64 `json:"threshold"`
	Version      string  `json:"version,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	scorer := s.scorer
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("invalid threshold %q", raw))
			return
		}
		scorer, err = s.scorer.With(scoring.WithThreshold(t))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	var req model.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, codeBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON")
		}
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, `missing "url"`)
		return
	}

	result, err := scorer.Score(r.Context(), req.URL)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("prediction failed", "url", req.URL, "error", err)
		}
		writeError(w, status, code, err.Error())
		return
	}

	if s.recorder != nil {
		if err := s.recorder.SavePrediction(r.Context(), result); err != nil {
			s.logger.Warn("failed to record prediction", "url", req.URL, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, model.NewPredictResponse(result))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	clf, err := s.scorer.Provider().Classifier()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, codeModelUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		ModelVersion: classifier.VersionOf(clf),
		Threshold:    s.scorer.EffectiveThreshold(),
		Version:      s.version,
	})
}

// statusFor maps scorer errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, features.ErrMalformedURL):
		return http.StatusUnprocessableEntity, codeMalformedURL
	case errors.Is(err, scoring.ErrSchemaMismatch):
		return http.StatusInternalServerError, codeSchemaMismatch
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusServiceUnavailable, codeModelUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // headers are already sent
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Code: code, Message: msg})
}
