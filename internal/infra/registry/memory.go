package registry

import (
	"context"
	"sync"
	"time"

	"agent-suite/internal/domain/entities"
)

// MemoryRegistry is the in-process CallRegistry used in development and
// tests. The mutex only protects map access; like the shared-store
// implementation, it provides no atomicity across registry calls.
type MemoryRegistry struct {
	mu      sync.Mutex
	calls   map[string]entities.LiveCall
	expiry  map[string]time.Time
	history []entities.CallHistory
	stats   map[string]*dayCounters

	now func() time.Time
}

type dayCounters struct {
	totalCalls     int64
	totalDuration  int64
	memoriesStored int64
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		calls:  make(map[string]entities.LiveCall),
		expiry: make(map[string]time.Time),
		stats:  make(map[string]*dayCounters),
		now:    time.Now,
	}
}

func (r *MemoryRegistry) SetActiveCall(_ context.Context, call entities.LiveCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[call.ID] = call
	r.expiry[call.ID] = r.now().Add(ActiveCallTTL)
	return nil
}

func (r *MemoryRegistry) GetActiveCall(_ context.Context, callID string) (entities.LiveCall, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.get(callID)
	return call, ok, nil
}

// get returns the live record, evicting it when its TTL has passed.
// Callers must hold the mutex.
func (r *MemoryRegistry) get(callID string) (entities.LiveCall, bool) {
	call, ok := r.calls[callID]
	if !ok {
		return entities.LiveCall{}, false
	}
	if r.now().After(r.expiry[callID]) {
		delete(r.calls, callID)
		delete(r.expiry, callID)
		return entities.LiveCall{}, false
	}
	return call, true
}

func (r *MemoryRegistry) ListActiveCalls(_ context.Context) ([]entities.LiveCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := []entities.LiveCall{}
	for id := range r.calls {
		call, ok := r.get(id)
		if !ok {
			continue
		}
		if call.Status == entities.CallStatusEnded {
			// Self-healing cleanup for records that never made it to history.
			delete(r.calls, id)
			delete(r.expiry, id)
			continue
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func (r *MemoryRegistry) AppendTranscript(_ context.Context, callID string, entry entities.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.get(callID)
	if !ok {
		return nil
	}
	if applyTranscript(&call, entry) {
		r.calls[callID] = call
		r.expiry[callID] = r.now().Add(ActiveCallTTL)
	}
	return nil
}

func (r *MemoryRegistry) UpdateStatus(_ context.Context, callID string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.get(callID)
	if !ok {
		return nil
	}
	call.Status = status
	r.calls[callID] = call
	r.expiry[callID] = r.now().Add(ActiveCallTTL)
	return nil
}

func (r *MemoryRegistry) EndCall(_ context.Context, callID string, summary string, memoriesStored int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.get(callID)
	if !ok {
		return nil
	}

	endTime := r.now()
	entry := historyFrom(call, endTime, summary, memoriesStored)

	r.history = append([]entities.CallHistory{entry}, r.history...)
	if len(r.history) > HistoryLimit {
		r.history = r.history[:HistoryLimit]
	}

	delete(r.calls, callID)
	delete(r.expiry, callID)

	day := dailyKey(endTime)
	counters, ok := r.stats[day]
	if !ok {
		counters = &dayCounters{}
		r.stats[day] = counters
	}
	counters.totalCalls++
	counters.totalDuration += entry.Duration
	counters.memoriesStored += int64(memoriesStored)
	return nil
}

func (r *MemoryRegistry) CallHistory(_ context.Context, limit int) ([]entities.CallHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.history) {
		limit = len(r.history)
	}
	out := make([]entities.CallHistory, limit)
	copy(out, r.history[:limit])
	return out, nil
}

func (r *MemoryRegistry) DailyStats(_ context.Context) (entities.DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := entities.DailyStats{}
	counters, ok := r.stats[dailyKey(r.now())]
	if !ok {
		return stats, nil
	}

	stats.TotalCalls = counters.totalCalls
	stats.TotalDuration = counters.totalDuration
	stats.MemoriesStored = counters.memoriesStored
	if counters.totalCalls > 0 {
		stats.AvgDuration = counters.totalDuration / counters.totalCalls
	}
	return stats, nil
}
