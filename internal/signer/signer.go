// Package signer implements the keyed HMAC signer underlying view-token
// hashing, watermark signatures, and per-user identity hashes.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned by New when no signing secret is configured.
// The signer must fail closed at startup rather than fall back to a default.
var ErrEmptySecret = errors.New("signer: secret is not configured")

// Signer produces deterministic HMAC-SHA256 signatures, hex encoded.
type Signer struct {
	secret []byte
}

// New constructs a Signer. An empty secret is a configuration error.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the hex-encoded HMAC-SHA256 of data under the server secret.
func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignString is Sign for string inputs.
func (s *Signer) SignString(data string) string {
	return s.Sign([]byte(data))
}

// Verify re-derives the signature for data and compares it to candidate in
// constant time. It never branches on partial matches.
func (s *Signer) Verify(data []byte, candidate string) bool {
	return hmac.Equal([]byte(s.Sign(data)), []byte(candidate))
}
