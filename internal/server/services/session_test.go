package services

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/server/models"
)

var testMeta = models.ClientMeta{IP: "203.0.113.7", UserAgent: "reader/1.0"}

func TestIssue(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, false, "")
	ctx := context.Background()

	before := time.Now()
	issued, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	raw, err := hex.DecodeString(issued.ViewToken)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.WithinDuration(t, before.Add(e.cfg.SessionTTL), issued.ExpiresAt, 2*time.Second)

	stored := e.sessions.get(issued.SessionID)
	require.NotNil(t, stored)
	assert.Equal(t, e.signer.SignString(issued.ViewToken), stored.TokenHash)
	assert.NotEqual(t, issued.ViewToken, stored.TokenHash)
	assert.NotEmpty(t, stored.WatermarkSeed)
	assert.Equal(t, testMeta.IP, stored.ClientIP)
	assert.Equal(t, testMeta.UserAgent, stored.ClientUserAgent)
}

func TestIssueTokensAreUnique(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, false, "")
	ctx := context.Background()

	first, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	require.NoError(t, err)
	second, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	require.NoError(t, err)

	assert.NotEqual(t, first.ViewToken, second.ViewToken)
	assert.NotEqual(t, e.sessions.get(first.SessionID).WatermarkSeed,
		e.sessions.get(second.SessionID).WatermarkSeed)
}

func TestIssueNoteMissing(t *testing.T) {
	e := newEnv(t)

	_, err := e.sessionSvc.Issue(context.Background(), "nope", "u1", testMeta)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIssueNoteUnpublished(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", false, false, "")

	_, err := e.sessionSvc.Issue(context.Background(), "n1", "u1", testMeta)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIssueBanned(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, false, "")
	ctx := context.Background()

	e.dbmock.ExpectBegin()
	e.dbmock.ExpectCommit()
	require.NoError(t, e.adminSvc.BanUser(ctx, "n1", "u1", "sharing tokens"))

	_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	assert.ErrorIs(t, err, common.ErrAccessBanned)
}

func TestIssuePremium(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, true, "")
	ctx := context.Background()

	_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	assert.ErrorIs(t, err, common.ErrPremiumLocked)

	e.subs.active["u1"] = true
	_, err = e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	assert.NoError(t, err)
}

func TestIssueSessionCap(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, false, "")
	ctx := context.Background()

	for i := 0; i < e.cfg.SessionCap; i++ {
		_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
		require.NoError(t, err)
	}

	_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	assert.ErrorIs(t, err, common.ErrSessionLimit)

	// Another user is not affected by the cap.
	_, err = e.sessionSvc.Issue(ctx, "n1", "u2", testMeta)
	assert.NoError(t, err)
}

func TestResetFreesCap(t *testing.T) {
	e := newEnv(t)
	e.addNote("n1", true, false, "")
	ctx := context.Background()

	for i := 0; i < e.cfg.SessionCap; i++ {
		_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
		require.NoError(t, err)
	}
	_, err := e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	require.ErrorIs(t, err, common.ErrSessionLimit)

	require.NoError(t, e.sessionSvc.Reset(ctx, "n1", "u1"))
	// Reset is idempotent.
	require.NoError(t, e.sessionSvc.Reset(ctx, "n1", "u1"))

	_, err = e.sessionSvc.Issue(ctx, "n1", "u1", testMeta)
	assert.NoError(t, err)
}
