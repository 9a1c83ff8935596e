package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/studyvault/noteaccess/internal/server/metrics"
	"github.com/studyvault/noteaccess/internal/server/services"
)

type issueSessionResponse struct {
	SessionID string    `json:"session_id"`
	ViewToken string    `json:"view_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *HTTPServer) handleIssueSession(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("noteID")
	userID := userIDFrom(r.Context())

	issued, err := s.sessions.Issue(r.Context(), noteID, userID, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueSessionResponse{
		SessionID: issued.SessionID,
		ViewToken: issued.ViewToken,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (s *HTTPServer) handleResetSessions(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("noteID")
	userID := userIDFrom(r.Context())

	if err := s.sessions.Reset(r.Context(), noteID, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type watermarkResponse struct {
	Payload   *services.WatermarkPayload `json:"payload"`
	Signature string                     `json:"signature"`
}

func (s *HTTPServer) handleWatermark(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("noteID")
	userID := userIDFrom(r.Context())
	token := r.URL.Query().Get("token")

	payload, signature, err := s.watermarks.Get(r.Context(), noteID, userID, token, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, watermarkResponse{Payload: payload, Signature: signature})
}

func (s *HTTPServer) handleContent(w http.ResponseWriter, r *http.Request) {
	req := &services.StreamRequest{
		NoteID:      r.PathValue("noteID"),
		UserID:      userIDFrom(r.Context()),
		Token:       r.URL.Query().Get("token"),
		RangeHeader: r.Header.Get("Range"),
		Meta:        clientMeta(r),
	}

	res, err := s.stream.Stream(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer res.Body.Close()

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(res.ContentLength, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-store")
	if res.ContentRange != "" {
		w.Header().Set("Content-Range", res.ContentRange)
	}
	w.WriteHeader(res.StatusCode)

	n, err := io.Copy(w, res.Body)
	if err != nil {
		// The response is already committed; nothing to send to the client.
		s.logger.Warn(r.Context(), "content stream interrupted", "note_id", req.NoteID, "error", err)
	}

	metrics.ContentRequests.WithLabelValues(strconv.Itoa(res.StatusCode)).Inc()
	metrics.BytesStreamed.Add(float64(n))
}
