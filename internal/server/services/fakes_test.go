package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/config"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/accesslogs"
	"github.com/studyvault/noteaccess/internal/server/repositories/bans"
	"github.com/studyvault/noteaccess/internal/server/repositories/notes"
	"github.com/studyvault/noteaccess/internal/server/repositories/sessions"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
	"github.com/studyvault/noteaccess/internal/server/repositories/subscriptions"
	"github.com/studyvault/noteaccess/internal/server/repositories/users"
	"github.com/studyvault/noteaccess/internal/signer"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) logging.Logger                  { return l }

type fakeSessionsRepo struct {
	mu    sync.Mutex
	seq   int
	items []*models.ViewSession

	revokeAllForUserErr error
}

func (r *fakeSessionsRepo) Create(ctx context.Context, s *models.ViewSession) (*models.ViewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	created := *s
	created.ID = fmt.Sprintf("sess-%d", r.seq)
	created.CreatedAt = time.Now()
	created.LastSeenAt = created.CreatedAt
	r.items = append(r.items, &created)
	result := created
	return &result, nil
}

func (r *fakeSessionsRepo) SelectActive(ctx context.Context, noteID, userID string, now time.Time) ([]*models.ViewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ViewSession
	for i := len(r.items) - 1; i >= 0; i-- {
		s := r.items[i]
		if s.NoteID == noteID && s.UserID == userID && s.Active(now) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionsRepo) CountActive(ctx context.Context, noteID, userID string, now time.Time) (int, error) {
	active, err := r.SelectActive(ctx, noteID, userID, now)
	return len(active), err
}

func (r *fakeSessionsRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id {
			s.LastSeenAt = at
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeSessionsRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id {
			if s.RevokedAt == nil {
				s.RevokedAt = &at
			}
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeSessionsRepo) RevokeAllForUser(ctx context.Context, noteID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revokeAllForUserErr != nil {
		return r.revokeAllForUserErr
	}
	for _, s := range r.items {
		if s.NoteID == noteID && s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
		}
	}
	return nil
}

func (r *fakeSessionsRepo) RevokeAllForNote(ctx context.Context, noteID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.NoteID == noteID && s.RevokedAt == nil {
			s.RevokedAt = &at
		}
	}
	return nil
}

// get returns the stored row, for assertions on persisted state.
func (r *fakeSessionsRepo) get(id string) *models.ViewSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id {
			return s
		}
	}
	return nil
}

type fakeAccessLogsRepo struct {
	mu        sync.Mutex
	seq       int64
	items     []*models.AccessLogEntry
	createErr error
}

func (r *fakeAccessLogsRepo) Create(ctx context.Context, e *models.AccessLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	e.ID = r.seq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	copied := *e
	r.items = append(r.items, &copied)
	return nil
}

func (r *fakeAccessLogsRepo) CountSince(ctx context.Context, noteID, userID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.items {
		if e.NoteID == noteID && e.UserID == userID && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeAccessLogsRepo) SelectRecent(ctx context.Context, noteID, userID string, since time.Time, limit int) ([]*models.AccessLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AccessLogEntry
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.items[i]
		if e.NoteID == noteID && e.UserID == userID && !e.CreatedAt.Before(since) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeSignalsRepo struct {
	mu    sync.Mutex
	seq   int64
	items []*models.SecuritySignal
}

func (r *fakeSignalsRepo) Create(ctx context.Context, s *models.SecuritySignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copied := *s
	copied.ID = r.seq
	copied.CreatedAt = time.Now()
	r.items = append(r.items, &copied)
	return nil
}

func (r *fakeSignalsRepo) Select(ctx context.Context, f signals.Filter) ([]*models.SecuritySignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SecuritySignal
	for i := len(r.items) - 1; i >= 0; i-- {
		s := r.items[i]
		if f.NoteID != "" && s.NoteID != f.NoteID {
			continue
		}
		if f.UserID != "" && s.UserID != f.UserID {
			continue
		}
		if f.SignalType != "" && s.SignalType != f.SignalType {
			continue
		}
		copied := *s
		out = append(out, &copied)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSignalsRepo) SummaryByNote(ctx context.Context, noteID string) ([]*models.SignalSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	userSets := map[string]map[string]bool{}
	for _, s := range r.items {
		if s.NoteID != noteID {
			continue
		}
		counts[s.SignalType]++
		if userSets[s.SignalType] == nil {
			userSets[s.SignalType] = map[string]bool{}
		}
		userSets[s.SignalType][s.UserID] = true
	}
	var out []*models.SignalSummary
	for st, c := range counts {
		out = append(out, &models.SignalSummary{SignalType: st, Count: c, Users: len(userSets[st])})
	}
	return out, nil
}

func (r *fakeSignalsRepo) ofType(signalType string) []*models.SecuritySignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SecuritySignal
	for _, s := range r.items {
		if s.SignalType == signalType {
			out = append(out, s)
		}
	}
	return out
}

type fakeBansRepo struct {
	mu    sync.Mutex
	items map[string]*models.AccessBan
}

func banKey(noteID, userID string) string { return noteID + "|" + userID }

func (r *fakeBansRepo) Find(ctx context.Context, noteID, userID string) (*models.AccessBan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ban, ok := r.items[banKey(noteID, userID)]
	if !ok || ban.RevokedAt != nil {
		return nil, common.ErrorNotFound
	}
	copied := *ban
	return &copied, nil
}

func (r *fakeBansRepo) Upsert(ctx context.Context, ban *models.AccessBan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ban
	copied.CreatedAt = time.Now()
	copied.RevokedAt = nil
	r.items[banKey(ban.NoteID, ban.UserID)] = &copied
	return nil
}

func (r *fakeBansRepo) Revoke(ctx context.Context, noteID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ban, ok := r.items[banKey(noteID, userID)]; ok && ban.RevokedAt == nil {
		ban.RevokedAt = &at
	}
	return nil
}

type fakeNotesRepo struct {
	notes  map[string]*models.Note
	assets map[string]*models.FileAsset
}

func (r *fakeNotesRepo) Get(ctx context.Context, id string) (*models.Note, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNotesRepo) GetFileAsset(ctx context.Context, id string) (*models.FileAsset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *a
	return &copied, nil
}

type fakeUsersRepo struct {
	users map[string]*models.User
}

func (r *fakeUsersRepo) Get(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	return &copied, nil
}

type fakeSubscriptionsRepo struct {
	active map[string]bool
}

func (r *fakeSubscriptionsRepo) HasActive(ctx context.Context, userID, subjectID string, now time.Time) (bool, error) {
	return r.active[userID], nil
}

// fakeRepoManager vends the in-memory repositories, ignoring the DBTX.
type fakeRepoManager struct {
	sessions *fakeSessionsRepo
	logs     *fakeAccessLogsRepo
	signals  *fakeSignalsRepo
	bans     *fakeBansRepo
	notes    *fakeNotesRepo
	users    *fakeUsersRepo
	subs     *fakeSubscriptionsRepo
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository           { return m.sessions }
func (m *fakeRepoManager) AccessLogs(db dbx.DBTX) accesslogs.Repository       { return m.logs }
func (m *fakeRepoManager) Signals(db dbx.DBTX) signals.Repository             { return m.signals }
func (m *fakeRepoManager) Bans(db dbx.DBTX) bans.Repository                   { return m.bans }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notes.Repository                 { return m.notes }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) Subscriptions(db dbx.DBTX) subscriptions.Repository { return m.subs }

// memObjectStore serves objects from memory.
type memObjectStore struct {
	objects map[string][]byte
}

func (s *memObjectStore) Stat(ctx context.Context, key string) (int64, error) {
	b, ok := s.objects[key]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return int64(len(b)), nil
}

func (s *memObjectStore) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memObjectStore) ReadRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if offset < 0 || offset >= int64(len(b)) || offset+length > int64(len(b)) {
		return nil, common.ErrorInternal
	}
	return io.NopCloser(bytes.NewReader(b[offset : offset+length])), nil
}

// env wires the full service graph over the fakes.
type env struct {
	sessions *fakeSessionsRepo
	logs     *fakeAccessLogsRepo
	signals  *fakeSignalsRepo
	bans     *fakeBansRepo
	notes    *fakeNotesRepo
	users    *fakeUsersRepo
	subs     *fakeSubscriptionsRepo
	store    *memObjectStore

	cfg    *config.Config
	signer *signer.Signer
	dbmock sqlmock.Sqlmock

	sessionSvc   *SessionService
	policy       *AccessPolicy
	streamSvc    *StreamService
	watermarkSvc *WatermarkService
	adminSvc     *AdminService
	detector     *AnomalyDetector
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.WatermarkSecret = "test-watermark-secret"

	sg, err := signer.New(cfg.WatermarkSecret)
	require.NoError(t, err)

	// The admin service wraps its writes in a transaction, so it gets a
	// sqlmock-backed handle; the repositories behind it stay in memory.
	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		sessions: &fakeSessionsRepo{},
		logs:     &fakeAccessLogsRepo{},
		signals:  &fakeSignalsRepo{},
		bans:     &fakeBansRepo{items: map[string]*models.AccessBan{}},
		notes:    &fakeNotesRepo{notes: map[string]*models.Note{}, assets: map[string]*models.FileAsset{}},
		users:    &fakeUsersRepo{users: map[string]*models.User{}},
		subs:     &fakeSubscriptionsRepo{active: map[string]bool{}},
		store:    &memObjectStore{objects: map[string][]byte{}},
		cfg:      cfg,
		signer:   sg,
		dbmock:   dbmock,
	}

	rm := &fakeRepoManager{
		sessions: e.sessions,
		logs:     e.logs,
		signals:  e.signals,
		bans:     e.bans,
		notes:    e.notes,
		users:    e.users,
		subs:     e.subs,
	}

	log := nopLogger{}
	recorder := NewSignalRecorder(nil, rm, log)
	entitlements := NewSubscriptionEntitlements(nil, rm)

	e.sessionSvc = NewSessionService(nil, rm, sg, entitlements, cfg, log)
	e.policy = NewAccessPolicy(nil, rm, sg, recorder, cfg, log)
	e.detector = NewAnomalyDetector(nil, rm, recorder, log)
	e.streamSvc = NewStreamService(nil, rm, e.policy, e.store, e.detector, log)
	e.watermarkSvc = NewWatermarkService(nil, rm, e.policy, sg, log)
	e.adminSvc = NewAdminService(db, rm, log)

	return e
}

func (e *env) addNote(id string, published, premium bool, assetID string) {
	n := &models.Note{ID: id, SubjectID: "subj-1", Title: "t", IsPublished: published, IsPremium: premium}
	if assetID != "" {
		n.FileAssetID = &assetID
	}
	e.notes.notes[id] = n
}

func (e *env) addAsset(id, key, contentType string, content []byte) {
	e.notes.assets[id] = &models.FileAsset{ID: id, ObjectKey: key, ContentType: contentType}
	e.store.objects[key] = content
}

func (e *env) addUser(u *models.User) {
	e.users.users[u.ID] = u
}
