package services

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
)

const (
	// scrapeWindow is how far back the detector looks.
	scrapeWindow = 60 * time.Second
	// scrapeSample is how many recent log rows are examined.
	scrapeSample = 5
	// scrapeMinRun is the minimum number of rows that must form a contiguous
	// byte chain before a signal fires.
	scrapeMinRun = 4
)

// AnomalyDetector inspects the tail of the access log after each served
// request and flags sequential range walks that look like automated content
// scraping. Detection is best effort and purely observational.
type AnomalyDetector struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	recorder *SignalRecorder
	logger   logging.Logger
}

func NewAnomalyDetector(db *sql.DB, repos repomanager.RepositoryManager, recorder *SignalRecorder, logger logging.Logger) *AnomalyDetector {
	return &AnomalyDetector{db: db, repos: repos, recorder: recorder, logger: logger.With("module", "anomaly")}
}

// DetectRangeScrape emits one RANGE_SCRAPE signal when the pair's recent log
// rows form an unbroken chain of adjacent byte ranges (each request starting
// exactly one byte after the previous one ended).
func (d *AnomalyDetector) DetectRangeScrape(ctx context.Context, noteID, userID string) {
	since := time.Now().Add(-scrapeWindow)
	entries, err := d.repos.AccessLogs(d.db).SelectRecent(ctx, noteID, userID, since, scrapeSample)
	if err != nil {
		d.logger.Error(ctx, "failed to read access log tail", "note_id", noteID, "error", err)
		return
	}
	if len(entries) < scrapeMinRun {
		return
	}

	// SelectRecent returns newest first; the chain reads oldest to newest.
	slices.Reverse(entries)
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.RangeEnd == nil || cur.RangeStart == nil {
			return
		}
		if *cur.RangeStart != *prev.RangeEnd+1 {
			return
		}
	}

	first, last := entries[0], entries[len(entries)-1]
	metadata := map[string]any{
		"requests":       len(entries),
		"window_seconds": int(scrapeWindow.Seconds()),
	}
	if first.RangeStart != nil {
		metadata["first_byte"] = *first.RangeStart
	}
	if last.RangeEnd != nil {
		metadata["last_byte"] = *last.RangeEnd
	}
	d.recorder.Record(ctx, noteID, userID, models.SignalRangeScrape, metadata)
}
