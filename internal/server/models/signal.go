package models

import "time"

// Security signal types. Signals are detection evidence, not denials.
const (
	SignalTokenReuse  = "TOKEN_REUSE"
	SignalRateLimit   = "RATE_LIMIT"
	SignalRangeScrape = "RANGE_SCRAPE"
)

// SecuritySignal is an immutable record of a suspicious access pattern,
// consumed by moderation tooling. Rows are only ever inserted.
type SecuritySignal struct {
	ID         int64
	NoteID     string
	UserID     string
	SignalType string
	// Metadata is an opaque structured payload, persisted as jsonb.
	Metadata  map[string]any
	CreatedAt time.Time
}

// SignalSummary aggregates signals of one type for a note.
type SignalSummary struct {
	SignalType string
	Count      int
	Users      int
}
