package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/objstore"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
)

// maxOpenRangeLength caps open-ended ranges ("bytes=N-") at 1 MiB so a single
// request cannot pull the whole object.
const maxOpenRangeLength = int64(1 << 20)

const defaultContentType = "application/octet-stream"

// StreamService serves note content from the object store behind the access
// policy, appends the audit row, and feeds the anomaly detector.
type StreamService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	policy   *AccessPolicy
	store    objstore.ObjectStore
	detector *AnomalyDetector
	logger   logging.Logger
}

func NewStreamService(db *sql.DB, repos repomanager.RepositoryManager, policy *AccessPolicy,
	store objstore.ObjectStore, detector *AnomalyDetector, logger logging.Logger) *StreamService {
	return &StreamService{
		db:       db,
		repos:    repos,
		policy:   policy,
		store:    store,
		detector: detector,
		logger:   logger.With("module", "stream"),
	}
}

// StreamRequest carries everything one content request needs.
type StreamRequest struct {
	NoteID      string
	UserID      string
	Token       string
	RangeHeader string
	Meta        models.ClientMeta
}

// StreamResult is the shaped response: the handler copies Body to the client
// and sets headers from the remaining fields. ContentRange is empty for full
// responses.
type StreamResult struct {
	Body          io.ReadCloser
	StatusCode    int
	ContentType   string
	ContentLength int64
	ContentRange  string
}

// Stream validates the session, resolves the note's asset, applies the rate
// limit, and opens the requested byte window of the note's object. Every served request leaves an
// access-log row; logging and detection failures never break a stream that
// has already been opened.
func (s *StreamService) Stream(ctx context.Context, req *StreamRequest) (*StreamResult, error) {
	session, err := s.policy.ValidateSession(ctx, req.NoteID, req.UserID, req.Token, req.Meta)
	if err != nil {
		return nil, err
	}

	note, err := s.repos.Notes(s.db).Get(ctx, req.NoteID)
	if err != nil {
		return nil, err
	}
	if note.FileAssetID == nil {
		return nil, common.ErrorNotFound
	}
	asset, err := s.repos.Notes(s.db).GetFileAsset(ctx, *note.FileAssetID)
	if err != nil {
		return nil, err
	}

	// A note without an asset is a 404 even for a rate-limited caller.
	if err := s.policy.CheckRateLimit(ctx, req.NoteID, req.UserID); err != nil {
		return nil, err
	}

	size, err := s.store.Stat(ctx, asset.ObjectKey)
	if err != nil {
		return nil, err
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	result := &StreamResult{ContentType: contentType}
	entry := &models.AccessLogEntry{
		NoteID:          req.NoteID,
		UserID:          req.UserID,
		ViewSessionID:   session.ID,
		ClientIP:        req.Meta.IP,
		ClientUserAgent: req.Meta.UserAgent,
	}

	if req.RangeHeader == "" {
		body, err := s.store.Read(ctx, asset.ObjectKey)
		if err != nil {
			return nil, err
		}
		result.Body = body
		result.StatusCode = http.StatusOK
		result.ContentLength = size
		entry.BytesSent = size
	} else {
		start, end, err := parseRange(req.RangeHeader, size)
		if err != nil {
			return nil, err
		}
		length := end - start + 1
		body, err := s.store.ReadRange(ctx, asset.ObjectKey, start, length)
		if err != nil {
			return nil, err
		}
		result.Body = body
		result.StatusCode = http.StatusPartialContent
		result.ContentLength = length
		result.ContentRange = fmt.Sprintf("bytes %d-%d/%d", start, end, size)
		entry.RangeStart = &start
		entry.RangeEnd = &end
		entry.BytesSent = length
	}

	if err := s.repos.AccessLogs(s.db).Create(ctx, entry); err != nil {
		s.logger.Error(ctx, "failed to append access log entry", "note_id", req.NoteID, "error", err)
	} else {
		s.detector.DetectRangeScrape(ctx, req.NoteID, req.UserID)
	}

	return result, nil
}

// parseRange parses a single-range "bytes=<start>-<end>" header against the
// object size. The end bound is optional; open-ended ranges are clamped to
// maxOpenRangeLength. Multi-range and suffix forms are rejected.
func parseRange(header string, size int64) (start, end int64, err error) {
	window, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, common.ErrRangeInvalid
	}
	startPart, endPart, ok := strings.Cut(window, "-")
	if !ok {
		return 0, 0, common.ErrRangeInvalid
	}

	start, perr := strconv.ParseInt(startPart, 10, 64)
	if perr != nil || start < 0 || start >= size {
		return 0, 0, common.ErrRangeInvalid
	}

	if endPart == "" {
		end = min(start+maxOpenRangeLength-1, size-1)
		return start, end, nil
	}

	end, perr = strconv.ParseInt(endPart, 10, 64)
	if perr != nil || end < start || end >= size {
		return 0, 0, common.ErrRangeInvalid
	}
	return start, end, nil
}
