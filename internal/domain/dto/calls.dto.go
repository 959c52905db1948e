package dto

import (
	"time"

	"agent-suite/internal/domain/entities"
)

// CallProjection is the single-call view served to the polling UI.
type CallProjection struct {
	ID            string                     `json:"id"`
	CustomerID    string                     `json:"customerId"`
	CustomerPhone string                     `json:"customerPhone"`
	Direction     string                     `json:"direction"`
	Status        string                     `json:"status"`
	StartTime     time.Time                  `json:"startTime"`
	Transcript    []entities.TranscriptEntry `json:"transcript"`
	Sentiment     string                     `json:"sentiment,omitempty"`
}

// ActiveCallSummary is the list view of a live call without its transcript.
type ActiveCallSummary struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customerId"`
	CustomerPhone   string    `json:"customerPhone"`
	Direction       string    `json:"direction"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"startTime"`
	TranscriptCount int       `json:"transcriptCount"`
}

type CallsOverview struct {
	Active  []entities.LiveCall    `json:"active"`
	History []entities.CallHistory `json:"history"`
	Stats   OverviewStats          `json:"stats"`
}

type OverviewStats struct {
	ActiveCount    int   `json:"activeCount"`
	TotalToday     int64 `json:"totalToday"`
	AvgDuration    int64 `json:"avgDuration"`
	MemoriesStored int64 `json:"memoriesStored"`
}

// OutboundCallRequest triggers an outbound call through the voice provider.
type OutboundCallRequest struct {
	PhoneNumber   string `json:"phoneNumber"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	TicketID      string `json:"ticketId,omitempty"`
	TicketSubject string `json:"ticketSubject,omitempty"`
}

type OutboundCallResponse struct {
	Success    bool   `json:"success"`
	CallID     string `json:"callId"`
	Status     string `json:"status"`
	CustomerID string `json:"customerId"`
}
