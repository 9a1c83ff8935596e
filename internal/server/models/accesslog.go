package models

import "time"

// AccessLogEntry is one row of the append-only audit trail: one row per
// served content request. RangeStart/RangeEnd are nil for full (non-range)
// responses.
type AccessLogEntry struct {
	ID            int64
	NoteID        string
	UserID        string
	ViewSessionID string

	RangeStart *int64
	RangeEnd   *int64
	BytesSent  int64

	ClientIP        string
	ClientUserAgent string
	CreatedAt       time.Time
}
