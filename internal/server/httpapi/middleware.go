package httpapi

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/server/auth"
	"github.com/studyvault/noteaccess/internal/server/models"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// withAuth verifies the platform JWT from the Authorization header and puts
// the user id on the request context.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withAdmin gates the moderation surface behind a static bearer token. An
// unconfigured token rejects every request.
func (s *HTTPServer) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || s.adminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}
		next(w, r)
	}
}

// withRequestID tags every response with a request id so access denials and
// signals can be correlated across logs. An id supplied by the platform proxy
// is passed through.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// clientMeta extracts the caller's IP and user agent. The service runs behind
// the platform proxy, so the first X-Forwarded-For hop wins when present.
func clientMeta(r *http.Request) models.ClientMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		ip, _, _ = strings.Cut(ip, ",")
		ip = strings.TrimSpace(ip)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	return models.ClientMeta{IP: ip, UserAgent: r.Header.Get("User-Agent")}
}
