// Package models defines server-side data models persisted in the database.
package models

import "time"

// ViewSession is a time-boxed, revocable grant allowing one user to fetch one
// note's content. The raw view token is never stored; only its keyed hash.
// Sessions are never deleted: terminal states are RevokedAt set or ExpiresAt
// elapsed.
type ViewSession struct {
	ID     string
	NoteID string
	UserID string

	// TokenHash is sign(rawToken); the plaintext token exists only in the
	// issuance response.
	TokenHash string
	// WatermarkSeed is a per-session random value embedded in watermark
	// payloads so a leaked render traces back to this session.
	WatermarkSeed string

	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time

	// Client metadata recorded at issuance, compared on later validations
	// to detect token sharing.
	ClientIP        string
	ClientUserAgent string
}

// Active reports whether the session is unrevoked and unexpired at now.
func (s *ViewSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// ClientMeta carries per-request client attributes used for session binding
// and audit logging.
type ClientMeta struct {
	IP        string
	UserAgent string
}
