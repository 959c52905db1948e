package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agent-suite/internal/domain/entities"
	"agent-suite/internal/infra/logger"

	"github.com/redis/go-redis/v9"
)

const (
	keyActiveCall  = "call:active:"
	keyActiveIDs   = "calls:active:ids"
	keyCallHistory = "calls:history"
	keyDailyStats  = "stats:daily:"
)

// RedisRegistry is the shared-store CallRegistry. Every handler
// invocation reaches the same keys, which makes it the only shared
// mutable resource between invocations.
type RedisRegistry struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisRegistry(client *redis.Client, log *logger.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, log: log}
}

func (r *RedisRegistry) SetActiveCall(ctx context.Context, call entities.LiveCall) error {
	payload, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call %s: %w", call.ID, err)
	}

	if err := r.client.Set(ctx, keyActiveCall+call.ID, payload, ActiveCallTTL).Err(); err != nil {
		return fmt.Errorf("set call %s: %w", call.ID, err)
	}
	if err := r.client.SAdd(ctx, keyActiveIDs, call.ID).Err(); err != nil {
		return fmt.Errorf("register call id %s: %w", call.ID, err)
	}
	return nil
}

func (r *RedisRegistry) GetActiveCall(ctx context.Context, callID string) (entities.LiveCall, bool, error) {
	payload, err := r.client.Get(ctx, keyActiveCall+callID).Result()
	if err == redis.Nil {
		return entities.LiveCall{}, false, nil
	}
	if err != nil {
		return entities.LiveCall{}, false, fmt.Errorf("get call %s: %w", callID, err)
	}

	var call entities.LiveCall
	if err := json.Unmarshal([]byte(payload), &call); err != nil {
		return entities.LiveCall{}, false, fmt.Errorf("decode call %s: %w", callID, err)
	}
	return call, true, nil
}

func (r *RedisRegistry) ListActiveCalls(ctx context.Context) ([]entities.LiveCall, error) {
	ids, err := r.client.SMembers(ctx, keyActiveIDs).Result()
	if err != nil {
		return nil, fmt.Errorf("list call ids: %w", err)
	}

	calls := []entities.LiveCall{}
	for _, id := range ids {
		call, ok, err := r.GetActiveCall(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok || call.Status == entities.CallStatusEnded {
			// Expired or already ended: drop the stale id from the set.
			if err := r.client.SRem(ctx, keyActiveIDs, id).Err(); err != nil {
				r.log.Warn(fmt.Sprintf("Failed to evict stale call id %s: %v", id, err))
			}
			continue
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func (r *RedisRegistry) AppendTranscript(ctx context.Context, callID string, entry entities.TranscriptEntry) error {
	call, ok, err := r.GetActiveCall(ctx, callID)
	if err != nil || !ok {
		return err
	}
	if !applyTranscript(&call, entry) {
		return nil
	}
	return r.SetActiveCall(ctx, call)
}

func (r *RedisRegistry) UpdateStatus(ctx context.Context, callID string, status string) error {
	call, ok, err := r.GetActiveCall(ctx, callID)
	if err != nil || !ok {
		return err
	}
	call.Status = status
	return r.SetActiveCall(ctx, call)
}

func (r *RedisRegistry) EndCall(ctx context.Context, callID string, summary string, memoriesStored int) error {
	call, ok, err := r.GetActiveCall(ctx, callID)
	if err != nil || !ok {
		return err
	}

	endTime := time.Now()
	entry := historyFrom(call, endTime, summary, memoriesStored)

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history %s: %w", callID, err)
	}
	if err := r.client.LPush(ctx, keyCallHistory, payload).Err(); err != nil {
		return fmt.Errorf("push history %s: %w", callID, err)
	}
	if err := r.client.LTrim(ctx, keyCallHistory, 0, HistoryLimit-1).Err(); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := r.client.Del(ctx, keyActiveCall+callID).Err(); err != nil {
		return fmt.Errorf("delete call %s: %w", callID, err)
	}
	if err := r.client.SRem(ctx, keyActiveIDs, callID).Err(); err != nil {
		return fmt.Errorf("deregister call id %s: %w", callID, err)
	}

	statsKey := keyDailyStats + dailyKey(endTime)
	if err := r.client.HIncrBy(ctx, statsKey, "totalCalls", 1).Err(); err != nil {
		return fmt.Errorf("increment totalCalls: %w", err)
	}
	if err := r.client.HIncrBy(ctx, statsKey, "totalDuration", entry.Duration).Err(); err != nil {
		return fmt.Errorf("increment totalDuration: %w", err)
	}
	if err := r.client.HIncrBy(ctx, statsKey, "memoriesStored", int64(memoriesStored)).Err(); err != nil {
		return fmt.Errorf("increment memoriesStored: %w", err)
	}
	return nil
}

func (r *RedisRegistry) CallHistory(ctx context.Context, limit int) ([]entities.CallHistory, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	payloads, err := r.client.LRange(ctx, keyCallHistory, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	history := []entities.CallHistory{}
	for _, payload := range payloads {
		var entry entities.CallHistory
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			r.log.Warn(fmt.Sprintf("Skipping undecodable history entry: %v", err))
			continue
		}
		history = append(history, entry)
	}
	return history, nil
}

func (r *RedisRegistry) DailyStats(ctx context.Context) (entities.DailyStats, error) {
	values, err := r.client.HGetAll(ctx, keyDailyStats+dailyKey(time.Now())).Result()
	if err != nil {
		return entities.DailyStats{}, fmt.Errorf("read daily stats: %w", err)
	}

	stats := entities.DailyStats{
		TotalCalls:     parseCounter(values["totalCalls"]),
		TotalDuration:  parseCounter(values["totalDuration"]),
		MemoriesStored: parseCounter(values["memoriesStored"]),
	}
	if stats.TotalCalls > 0 {
		stats.AvgDuration = stats.TotalDuration / stats.TotalCalls
	}
	return stats, nil
}

func parseCounter(s string) int64 {
	var n int64
	fmt.Sscanf(s, "%d", &n)
	return n
}
