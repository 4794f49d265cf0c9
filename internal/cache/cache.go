// Package cache fronts business lookups with Redis. Businesses change rarely
// and every review event resolves all of a user's reviewed businesses, so
// this is the hot read path of badge evaluation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/metrics"
)

const keyPrefix = "business:"

// NewClient parses a redis:// URL and checks connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}

// BusinessStore wraps an activity.Store. Business reads go through Redis;
// business writes invalidate the cached copy. Cache failures fall back to
// the wrapped store.
type BusinessStore struct {
	activity.Store
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewBusinessStore(next activity.Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *BusinessStore {
	return &BusinessStore{
		Store:  next,
		client: client,
		ttl:    ttl,
		logger: logging.OrNop(logger),
	}
}

func key(id string) string { return keyPrefix + id }

func (s *BusinessStore) BusinessesByID(ctx context.Context, ids []string) (map[string]activity.Business, error) {
	out := make(map[string]activity.Business, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.logger.Warn("business cache read failed", zap.Error(err))
	} else {
		missing = nil
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var b activity.Business
			if err := json.Unmarshal([]byte(str), &b); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = b
		}
		metrics.CacheRequests.WithLabelValues("hit").Add(float64(len(out)))
		metrics.CacheRequests.WithLabelValues("miss").Add(float64(len(missing)))
	}

	if len(missing) == 0 {
		return out, nil
	}
	fetched, err := s.Store.BusinessesByID(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, b := range fetched {
		out[id] = b
	}
	s.fill(ctx, fetched)
	return out, nil
}

func (s *BusinessStore) Business(ctx context.Context, id string) (activity.Business, error) {
	found, err := s.BusinessesByID(ctx, []string{id})
	if err != nil {
		return activity.Business{}, err
	}
	b, ok := found[id]
	if !ok {
		return activity.Business{}, activity.ErrNotFound
	}
	return b, nil
}

func (s *BusinessStore) UpsertBusiness(ctx context.Context, b activity.Business) error {
	if err := s.Store.UpsertBusiness(ctx, b); err != nil {
		return err
	}
	if err := s.client.Del(ctx, key(b.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("business cache invalidation failed",
			zap.String("business_id", b.ID),
			zap.Error(err))
	}
	return nil
}

func (s *BusinessStore) fill(ctx context.Context, found map[string]activity.Business) {
	if len(found) == 0 {
		return
	}
	pipe := s.client.Pipeline()
	for id, b := range found {
		data, err := json.Marshal(b)
		if err != nil {
			continue
		}
		pipe.Set(ctx, key(id), data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("business cache fill failed", zap.Error(err))
	}
}

var _ activity.Store = (*BusinessStore)(nil)
