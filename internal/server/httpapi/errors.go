package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/server/metrics"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps service errors to a JSON error body with a stable machine
// code. Policy denials are 403, validation failures 400; anything unexpected
// collapses to an opaque 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status    int
		policyErr *common.PolicyError
		validErr  *common.ValidationError
		body      errorResponse
	)

	switch {
	case errors.As(err, &policyErr):
		status = http.StatusForbidden
		body = errorResponse{Code: policyErr.Code, Message: policyErr.Message}
		metrics.PolicyDenials.WithLabelValues(policyErr.Code).Inc()
	case errors.As(err, &validErr):
		status = http.StatusBadRequest
		body = errorResponse{Code: validErr.Code, Message: validErr.Message}
		metrics.PolicyDenials.WithLabelValues(validErr.Code).Inc()
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		body = errorResponse{Code: "NOTE_NOT_FOUND", Message: "not found"}
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
		body = errorResponse{Code: "NOTE_UNAUTHORIZED", Message: "authentication required"}
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		status = http.StatusInternalServerError
		body = errorResponse{Code: "NOTE_INTERNAL", Message: "internal error"}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
