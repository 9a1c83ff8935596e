package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
)

var (
	errInvalidLimit = &common.ValidationError{Code: "NOTE_LIMIT_INVALID", Message: "limit must be a positive integer"}
	errMissingUser  = &common.ValidationError{Code: "NOTE_USER_MISSING", Message: "user_id is required"}
)

type signalResponse struct {
	ID         int64          `json:"id"`
	NoteID     string         `json:"note_id"`
	UserID     string         `json:"user_id,omitempty"`
	SignalType string         `json:"signal_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (s *HTTPServer) handleListSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := signals.Filter{
		NoteID:     q.Get("note_id"),
		UserID:     q.Get("user_id"),
		SignalType: q.Get("type"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			s.writeError(w, r, errInvalidLimit)
			return
		}
		filter.Limit = n
	}

	found, err := s.admin.ListSignals(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]signalResponse, 0, len(found))
	for _, sig := range found {
		out = append(out, signalResponse{
			ID:         sig.ID,
			NoteID:     sig.NoteID,
			UserID:     sig.UserID,
			SignalType: sig.SignalType,
			Metadata:   sig.Metadata,
			CreatedAt:  sig.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type summaryResponse struct {
	SignalType string `json:"signal_type"`
	Count      int    `json:"count"`
	Users      int    `json:"users"`
}

func (s *HTTPServer) handleSignalSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.admin.NoteSignalSummary(r.Context(), r.PathValue("noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]summaryResponse, 0, len(summary))
	for _, row := range summary {
		out = append(out, summaryResponse{SignalType: row.SignalType, Count: row.Count, Users: row.Users})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.RevokeSession(r.Context(), r.PathValue("sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleRevokeNoteSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.RevokeNoteSessions(r.Context(), r.PathValue("noteID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type banRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleBanUser(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	// The reason is optional; the user id is not.
	json.NewDecoder(r.Body).Decode(&req)
	if req.UserID == "" {
		s.writeError(w, r, errMissingUser)
		return
	}

	if err := s.admin.BanUser(r.Context(), r.PathValue("noteID"), req.UserID, req.Reason); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.UnbanUser(r.Context(), r.PathValue("noteID"), r.PathValue("userID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
