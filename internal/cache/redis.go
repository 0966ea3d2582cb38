package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	MaxRecent int64
	Logger    *logrus.Logger
}

// RedisCache keeps the capped list of recent round trips and publishes each
// one on the live channel.
type RedisCache struct {
	client    *redis.Client
	maxRecent int64
	logger    *logrus.Logger
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisCacheFromClient(client, cfg), nil
}

// NewRedisCacheFromClient wraps an existing client, e.g. one shared with the
// flag store.
func NewRedisCacheFromClient(client *redis.Client, cfg RedisConfig) *RedisCache {
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = constants.MaxRecentRoundTrips
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &RedisCache{client: client, maxRecent: cfg.MaxRecent, logger: cfg.Logger}
}

func (r *RedisCache) Client() *redis.Client { return r.client }

func (r *RedisCache) AddRecentRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal round trip: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentRoundTrips, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentRoundTrips, 0, r.maxRecent-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent round trip: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRecentRoundTrips(ctx context.Context, limit int64) ([]*models.RoundTripEvent, error) {
	if limit <= 0 || limit > r.maxRecent {
		limit = r.maxRecent
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentRoundTrips, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent round trips: %w", err)
	}

	out := make([]*models.RoundTripEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.RoundTripEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			r.logger.WithError(err).Warn("skipping malformed round trip entry")
			continue
		}
		out = append(out, &ev)
	}
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Record stores ev in the recent list and publishes it.
func (r *RedisCache) Record(ctx context.Context, ev *models.RoundTripEvent) error {
	if err := r.AddRecentRoundTrip(ctx, ev); err != nil {
		return err
	}
	return r.PublishRoundTrip(ctx, ev)
}
