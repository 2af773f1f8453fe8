package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// CachedStore keeps the last-progress projection of each user in Redis in
// front of another Store. Redis errors never fail a call: reads fall back to
// the wrapped store and writes only lose the invalidation.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache. A zero ttl uses ten minutes.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration) (*CachedStore, error) {
	if next == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{next: next, client: client, ttl: ttl}, nil
}

type cachedProgress struct {
	ChapterID int    `json:"chapter_id"`
	Status    Status `json:"status"`
}

func lastProgressKey(userID int64) string {
	return fmt.Sprintf("progress:last:%d", userID)
}

func (s *CachedStore) GetLastProgress(ctx context.Context, userID int64) (LastProgress, error) {
	key := lastProgressKey(userID)

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cp cachedProgress
		if err := json.Unmarshal(raw, &cp); err == nil {
			return LastProgress{ChapterID: cp.ChapterID, Status: cp.Status}, nil
		}
		slog.Warn("discarding malformed cached progress", "user_id", userID)
	case !errors.Is(err, redis.Nil):
		slog.Warn("progress cache read failed", "user_id", userID, "error", err)
	}

	last, err := s.next.GetLastProgress(ctx, userID)
	if err != nil {
		return LastProgress{}, err
	}

	data, err := json.Marshal(cachedProgress{ChapterID: last.ChapterID, Status: last.Status})
	if err != nil {
		return last, nil
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.Warn("progress cache write failed", "user_id", userID, "error", err)
	}
	return last, nil
}

func (s *CachedStore) SaveProgress(ctx context.Context, rec Record) error {
	if err := s.next.SaveProgress(ctx, rec); err != nil {
		return err
	}
	if err := s.client.Del(ctx, lastProgressKey(rec.UserID)).Err(); err != nil {
		slog.Warn("progress cache invalidation failed", "user_id", rec.UserID, "error", err)
	}
	return nil
}
