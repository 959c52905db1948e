package entities

import (
	"strings"
	"time"
)

// Call lifecycle states. A call moves ringing → in-progress → ended and
// is removed from the live set at the terminal transition.
const (
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in-progress"
	CallStatusEnded      = "ended"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

const (
	RoleCustomer = "user"
	RoleAgent    = "assistant"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// LiveCall is the registry record for an in-progress voice call.
type LiveCall struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customerId"`
	CustomerPhone string            `json:"customerPhone"`
	Direction     string            `json:"direction"`
	Status        string            `json:"status"`
	StartTime     time.Time         `json:"startTime"`
	AssistantID   string            `json:"assistantId,omitempty"`
	Sentiment     string            `json:"sentiment,omitempty"`
	Transcript    []TranscriptEntry `json:"transcript"`
}

// TranscriptEntry is one utterance of a call. Entries are append-only;
// insertion order is the only ordering guarantee.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment string    `json:"sentiment,omitempty"`
}

// CallHistory is the record derived from a LiveCall at its terminal
// transition.
type CallHistory struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	CustomerPhone  string    `json:"customerPhone"`
	Direction      string    `json:"direction"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Duration       int64     `json:"duration"`
	Summary        string    `json:"summary,omitempty"`
	Sentiment      string    `json:"sentiment,omitempty"`
	MemoriesStored int       `json:"memoriesStored"`
}

// DailyStats aggregates the calls ended on a single day.
type DailyStats struct {
	TotalCalls     int64 `json:"totalCalls"`
	TotalDuration  int64 `json:"totalDuration"`
	AvgDuration    int64 `json:"avgDuration"`
	MemoriesStored int64 `json:"memoriesStored"`
}

// DetectSentiment tags an utterance by case-insensitive keyword match.
func DetectSentiment(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "thank") || strings.Contains(lower, "great") || strings.Contains(lower, "perfect"):
		return SentimentPositive
	case strings.Contains(lower, "problem") || strings.Contains(lower, "issue") || strings.Contains(lower, "frustrated"):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
