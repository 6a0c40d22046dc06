package trail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "attest/pkg/domain"
)

// RedisFeed keeps a capped per-audit list of recent entries so the activity
// endpoint can answer without touching Postgres. The feed is a cache: entries
// expire, and readers fall back to the store on a miss.
type RedisFeed struct {
	client *redis.Client
	cap    int64
	ttl    time.Duration
}

// NewRedisFeed builds a feed keeping up to capacity entries per audit.
func NewRedisFeed(client *redis.Client, capacity int, ttl time.Duration) *RedisFeed {
	return &RedisFeed{client: client, cap: int64(capacity), ttl: ttl}
}

func feedKey(auditID id.AuditID) string {
	return "attest:trail:" + auditID.String()
}

// Push prepends the entry and trims the list to capacity.
func (f *RedisFeed) Push(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal trail entry: %w", err)
	}
	key := feedKey(entry.AuditID)

	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, f.cap-1)
	pipe.Expire(ctx, key, f.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push trail entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first. An empty result may
// mean a cold cache; callers fall back to the store.
func (f *RedisFeed) Recent(ctx context.Context, auditID id.AuditID, limit int) ([]Entry, error) {
	raws, err := f.client.LRange(ctx, feedKey(auditID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read trail feed: %w", err)
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal trail entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
