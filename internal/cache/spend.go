package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
)

const spendWindow = 24 * time.Hour

// RedisSpendLedger keeps the rolling 24h spend window in a sorted set so the
// daily limit holds across restarts and across processes sharing the wallet.
// Members are "<unixnano>:<seq>:<amount>" scored by unix milliseconds.
type RedisSpendLedger struct {
	client *redis.Client
	key    string
	seq    atomic.Uint64
	now    func() time.Time
}

func NewRedisSpendLedger(client *redis.Client) *RedisSpendLedger {
	return &RedisSpendLedger{
		client: client,
		key:    constants.RedisKeyRiskSpend,
		now:    time.Now,
	}
}

func (l *RedisSpendLedger) Record(ctx context.Context, amount uint64) error {
	now := l.now()
	member := fmt.Sprintf("%d:%d:%d", now.UnixNano(), l.seq.Add(1), amount)

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, l.key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.ZRemRangeByScore(ctx, l.key, "-inf", l.cutoff(now))
	pipe.Expire(ctx, l.key, spendWindow+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record spend: %w", err)
	}
	return nil
}

// Usage sums the amounts recorded within the last 24h.
func (l *RedisSpendLedger) Usage(ctx context.Context) (uint64, error) {
	now := l.now()
	if err := l.client.ZRemRangeByScore(ctx, l.key, "-inf", l.cutoff(now)).Err(); err != nil {
		return 0, fmt.Errorf("failed to trim spend window: %w", err)
	}

	members, err := l.client.ZRangeByScore(ctx, l.key, &redis.ZRangeBy{
		Min: "(" + l.cutoff(now),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read spend window: %w", err)
	}

	var total uint64
	for _, m := range members {
		i := strings.LastIndexByte(m, ':')
		amount, err := strconv.ParseUint(m[i+1:], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt spend entry %q: %w", m, err)
		}
		total += amount
	}
	return total, nil
}

func (l *RedisSpendLedger) cutoff(now time.Time) string {
	return strconv.FormatInt(now.Add(-spendWindow).UnixMilli(), 10)
}
