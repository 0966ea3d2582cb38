package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestRedisCache_RecentListIsCapped(t *testing.T) {
	rc := NewRedisCacheFromClient(setupTestRedis(t), RedisConfig{MaxRecent: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rc.AddRecentRoundTrip(ctx, &models.RoundTripEvent{
			Signature: fmt.Sprintf("sig%d", i),
			AmountIn:  5_000_000,
			Status:    "confirmed",
		}))
	}

	got, err := rc.GetRecentRoundTrips(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "sig4", got[0].Signature)
	assert.Equal(t, "sig2", got[2].Signature)
	assert.Equal(t, uint64(5_000_000), got[0].AmountIn)

	got, err = rc.GetRecentRoundTrips(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sig4", got[0].Signature)
}

func TestRedisCache_PublishSubscribe(t *testing.T) {
	rc := NewRedisCacheFromClient(setupTestRedis(t), RedisConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := rc.SubscribeRoundTrips(ctx)
	require.NoError(t, err)

	require.NoError(t, rc.Record(ctx, &models.RoundTripEvent{Signature: "live1", Pair: "SOL-USDC"}))

	select {
	case ev := <-events:
		require.NotNil(t, ev)
		assert.Equal(t, "live1", ev.Signature)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published round trip")
	}

	recent, err := rc.GetRecentRoundTrips(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
