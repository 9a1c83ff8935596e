package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
	"github.com/studyvault/noteaccess/internal/signer"
)

// WatermarkService builds the signed per-session watermark payload the client
// renders over note content.
type WatermarkService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	policy *AccessPolicy
	signer *signer.Signer
	logger logging.Logger
}

func NewWatermarkService(db *sql.DB, repos repomanager.RepositoryManager, policy *AccessPolicy,
	sg *signer.Signer, logger logging.Logger) *WatermarkService {
	return &WatermarkService{
		db:     db,
		repos:  repos,
		policy: policy,
		signer: sg,
		logger: logger.With("module", "watermark"),
	}
}

// WatermarkPayload identifies the viewing user and session. Contact fields
// are masked; UserHash is a stable keyed hash usable for tracing without
// exposing the raw identity.
type WatermarkPayload struct {
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	UserHash      string `json:"user_hash"`
	SessionID     string `json:"session_id"`
	WatermarkSeed string `json:"watermark_seed"`
}

// Get validates the view token and returns the payload together with its
// detached HMAC signature over the canonical JSON encoding.
func (s *WatermarkService) Get(ctx context.Context, noteID, userID, token string, meta models.ClientMeta) (*WatermarkPayload, string, error) {
	session, err := s.policy.ValidateSession(ctx, noteID, userID, token, meta)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repos.Users(s.db).Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	payload := &WatermarkPayload{
		DisplayName:   user.DisplayName,
		Email:         maskEmail(user.Email),
		Phone:         maskPhone(user.Phone),
		UserHash:      s.signer.SignString(user.ID + ":" + user.Email),
		SessionID:     session.ID,
		WatermarkSeed: session.WatermarkSeed,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	return payload, s.signer.Sign(raw), nil
}

// maskEmail keeps the first character of the local part and the full domain:
// "frodo@shire.example" becomes "f***@shire.example".
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	first := []rune(local)[0]
	return string(first) + "***@" + domain
}

// maskPhone stars out every digit except the last four; non-digit characters
// keep their positions.
func maskPhone(phone string) string {
	runes := []rune(phone)
	digits := 0
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsDigit(runes[i]) {
			digits++
			if digits > 4 {
				runes[i] = '*'
			}
		}
	}
	return string(runes)
}
