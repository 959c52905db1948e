// Package registry holds live voice-call state: a keyed store of
// in-progress calls with a TTL, a capped history list for ended calls,
// and per-day aggregate counters.
//
// The contract is last write wins. Mutations are blind read-then-write
// with no version counter and no compare-and-swap; two webhook deliveries
// for the same call arriving out of order can overwrite each other's
// transcript state. The event rate of a single voice call keeps that
// window small, and implementations must not silently add ordering
// guarantees the consumers do not rely on.
package registry

import (
	"context"
	"time"

	"agent-suite/internal/domain/entities"
)

// ActiveCallTTL bounds how long a live record survives without a
// terminal event.
const ActiveCallTTL = time.Hour

// HistoryLimit caps the ended-call list at the most recent entries.
const HistoryLimit = 100

type CallRegistry interface {
	// SetActiveCall upserts the full record and resets its TTL.
	SetActiveCall(ctx context.Context, call entities.LiveCall) error

	// GetActiveCall returns the live record, or false when the id is
	// unknown, expired, or already ended.
	GetActiveCall(ctx context.Context, callID string) (entities.LiveCall, bool, error)

	// ListActiveCalls returns all non-ended records, lazily evicting any
	// found with status ended that were never moved to history.
	ListActiveCalls(ctx context.Context) ([]entities.LiveCall, error)

	// AppendTranscript rewrites the whole record with one more entry.
	// The entry is dropped when its text equals the immediately preceding
	// entry's text. Unknown call ids are a no-op.
	AppendTranscript(ctx context.Context, callID string, entry entities.TranscriptEntry) error

	// UpdateStatus sets the record's status. Unknown call ids are a no-op.
	UpdateStatus(ctx context.Context, callID string, status string) error

	// EndCall moves the record from the live set to history, computing
	// duration = end − start in whole seconds, and increments the daily
	// counters. Unknown call ids are a no-op.
	EndCall(ctx context.Context, callID string, summary string, memoriesStored int) error

	// CallHistory returns up to limit of the most recently ended calls.
	CallHistory(ctx context.Context, limit int) ([]entities.CallHistory, error)

	// DailyStats returns today's aggregate counters.
	DailyStats(ctx context.Context) (entities.DailyStats, error)
}

// applyTranscript mutates call with one more entry, tagging its sentiment
// and mirroring it onto the call. Returns false when the entry duplicates
// the last stored text (a direct string comparison, not a content hash).
func applyTranscript(call *entities.LiveCall, entry entities.TranscriptEntry) bool {
	if last := len(call.Transcript) - 1; last >= 0 && call.Transcript[last].Text == entry.Text {
		return false
	}

	entry.Sentiment = entities.DetectSentiment(entry.Text)
	call.Transcript = append(call.Transcript, entry)
	call.Sentiment = entry.Sentiment
	return true
}

// historyFrom derives the terminal record for a live call.
func historyFrom(call entities.LiveCall, endTime time.Time, summary string, memoriesStored int) entities.CallHistory {
	return entities.CallHistory{
		ID:             call.ID,
		CustomerID:     call.CustomerID,
		CustomerPhone:  call.CustomerPhone,
		Direction:      call.Direction,
		StartTime:      call.StartTime,
		EndTime:        endTime,
		Duration:       int64(endTime.Sub(call.StartTime).Round(time.Second) / time.Second),
		Summary:        summary,
		Sentiment:      call.Sentiment,
		MemoriesStored: memoriesStored,
	}
}

func dailyKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
