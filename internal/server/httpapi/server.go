// Package httpapi exposes the access service over HTTP: the token-gated
// reader endpoints, the admin surface, and the operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
	"github.com/studyvault/noteaccess/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// SessionIssuer issues and resets view sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, noteID, userID string, meta models.ClientMeta) (*services.IssuedSession, error)
	Reset(ctx context.Context, noteID, userID string) error
}

// ContentStreamer serves note content behind the access policy.
type ContentStreamer interface {
	Stream(ctx context.Context, req *services.StreamRequest) (*services.StreamResult, error)
}

// WatermarkProvider builds signed watermark payloads.
type WatermarkProvider interface {
	Get(ctx context.Context, noteID, userID, token string, meta models.ClientMeta) (*services.WatermarkPayload, string, error)
}

// Pinger reports backing-store health, satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdminOps is the moderation surface.
type AdminOps interface {
	ListSignals(ctx context.Context, f signals.Filter) ([]*models.SecuritySignal, error)
	NoteSignalSummary(ctx context.Context, noteID string) ([]*models.SignalSummary, error)
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeNoteSessions(ctx context.Context, noteID string) error
	BanUser(ctx context.Context, noteID, userID, reason string) error
	UnbanUser(ctx context.Context, noteID, userID string) error
}

type HTTPServer struct {
	address    string
	logger     logging.Logger
	sessions   SessionIssuer
	stream     ContentStreamer
	watermarks WatermarkProvider
	admin      AdminOps
	db         Pinger
	jwtSecret  []byte
	adminToken string
}

func NewHTTPServer(address string, logger logging.Logger, sessions SessionIssuer, stream ContentStreamer,
	watermarks WatermarkProvider, admin AdminOps, db Pinger, secretKey, adminToken string) *HTTPServer {
	return &HTTPServer{
		address:    address,
		logger:     logger.With("module", "http_server"),
		sessions:   sessions,
		stream:     stream,
		watermarks: watermarks,
		admin:      admin,
		db:         db,
		jwtSecret:  []byte(secretKey),
		adminToken: adminToken,
	}
}

func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /notes/{noteID}/view-session", s.withAuth(s.handleIssueSession))
	mux.HandleFunc("POST /notes/{noteID}/view-session/reset", s.withAuth(s.handleResetSessions))
	mux.HandleFunc("GET /notes/{noteID}/watermark", s.withAuth(s.handleWatermark))
	mux.HandleFunc("GET /notes/{noteID}/content", s.withAuth(s.handleContent))

	mux.HandleFunc("GET /admin/security-signals", s.withAdmin(s.handleListSignals))
	mux.HandleFunc("GET /admin/notes/{noteID}/signal-summary", s.withAdmin(s.handleSignalSummary))
	mux.HandleFunc("DELETE /admin/view-sessions/{sessionID}", s.withAdmin(s.handleRevokeSession))
	mux.HandleFunc("DELETE /admin/notes/{noteID}/view-sessions", s.withAdmin(s.handleRevokeNoteSessions))
	mux.HandleFunc("POST /admin/notes/{noteID}/bans", s.withAdmin(s.handleBanUser))
	mux.HandleFunc("DELETE /admin/notes/{noteID}/bans/{userID}", s.withAdmin(s.handleUnbanUser))

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: withRequestID(s.routes()),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "graceful shutdown failed, closing", "error", err)
			srv.Close()
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}
