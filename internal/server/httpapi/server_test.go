package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/auth"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
	"github.com/studyvault/noteaccess/internal/server/services"
)

const (
	testJWTSecret  = "secretKey"
	testAdminToken = "admin-token"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) logging.Logger                  { return l }

type stubSessions struct {
	issued   *services.IssuedSession
	issueErr error
	resetErr error

	gotNoteID string
	gotUserID string
	gotMeta   models.ClientMeta
	resets    int
}

func (s *stubSessions) Issue(ctx context.Context, noteID, userID string, meta models.ClientMeta) (*services.IssuedSession, error) {
	s.gotNoteID, s.gotUserID, s.gotMeta = noteID, userID, meta
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return s.issued, nil
}

func (s *stubSessions) Reset(ctx context.Context, noteID, userID string) error {
	s.gotNoteID, s.gotUserID = noteID, userID
	s.resets++
	return s.resetErr
}

type stubStreamer struct {
	res *services.StreamResult
	err error
	got *services.StreamRequest
}

func (s *stubStreamer) Stream(ctx context.Context, req *services.StreamRequest) (*services.StreamResult, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubWatermarks struct {
	payload   *services.WatermarkPayload
	signature string
	err       error
	gotToken  string
}

func (s *stubWatermarks) Get(ctx context.Context, noteID, userID, token string, meta models.ClientMeta) (*services.WatermarkPayload, string, error) {
	s.gotToken = token
	if s.err != nil {
		return nil, "", s.err
	}
	return s.payload, s.signature, nil
}

type stubAdmin struct {
	signals   []*models.SecuritySignal
	summary   []*models.SignalSummary
	err       error
	gotFilter signals.Filter

	revokedSessions []string
	revokedNotes    []string
	bans            [][3]string
	unbans          [][2]string
}

func (s *stubAdmin) ListSignals(ctx context.Context, f signals.Filter) ([]*models.SecuritySignal, error) {
	s.gotFilter = f
	return s.signals, s.err
}

func (s *stubAdmin) NoteSignalSummary(ctx context.Context, noteID string) ([]*models.SignalSummary, error) {
	return s.summary, s.err
}

func (s *stubAdmin) RevokeSession(ctx context.Context, sessionID string) error {
	s.revokedSessions = append(s.revokedSessions, sessionID)
	return s.err
}

func (s *stubAdmin) RevokeNoteSessions(ctx context.Context, noteID string) error {
	s.revokedNotes = append(s.revokedNotes, noteID)
	return s.err
}

func (s *stubAdmin) BanUser(ctx context.Context, noteID, userID, reason string) error {
	s.bans = append(s.bans, [3]string{noteID, userID, reason})
	return s.err
}

func (s *stubAdmin) UnbanUser(ctx context.Context, noteID, userID string) error {
	s.unbans = append(s.unbans, [2]string{noteID, userID})
	return s.err
}

type stubPinger struct {
	err error
}

func (p *stubPinger) PingContext(ctx context.Context) error { return p.err }

type testServer struct {
	srv        *HTTPServer
	sessions   *stubSessions
	stream     *stubStreamer
	watermarks *stubWatermarks
	admin      *stubAdmin
	pinger     *stubPinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		sessions:   &stubSessions{},
		stream:     &stubStreamer{},
		watermarks: &stubWatermarks{},
		admin:      &stubAdmin{},
		pinger:     &stubPinger{},
	}
	ts.srv = NewHTTPServer(":0", nopLogger{}, ts.sessions, ts.stream, ts.watermarks, ts.admin,
		ts.pinger, testJWTSecret, testAdminToken)
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.srv.routes().ServeHTTP(rec, req)
	return rec
}

func mintJWT(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func authedRequest(t *testing.T, method, target, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+mintJWT(t, userID))
	return req
}

func adminRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}
