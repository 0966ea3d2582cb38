package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/cache"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/config"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/flags"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/storage"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

// deps are the optional backends. Each one is nil when unconfigured or
// unreachable; the engine runs without them.
type deps struct {
	logger  *logrus.Logger
	redis   *cache.RedisCache
	flags   *flags.Store
	history *cache.ClickHouseStore
}

func openDeps(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *deps {
	d := &deps{logger: logger}

	if cfg.RedisAddr != "" {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := cache.NewRedisCache(rctx, cache.RedisConfig{Addr: cfg.RedisAddr, Logger: logger})
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, continuing without flags and recent cache")
		} else {
			d.redis = rc
			if fs, err := flags.NewStore(rc.Client()); err == nil {
				d.flags = fs
			}
		}
	}

	if cfg.ClickHouseAddr != "" {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ch, err := cache.NewClickHouseStore(cctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err == nil {
			err = ch.EnsureSchema(cctx)
			if err != nil {
				_ = ch.Close()
			}
		}
		cancel()
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, continuing without history")
		} else {
			d.history = ch
		}
	}

	return d
}

// engineOptions plugs whichever backends came up into the engine.
func (d *deps) engineOptions() []swapengine.Option {
	var sinks []storage.Recorder
	if d.redis != nil {
		sinks = append(sinks, d.redis)
	}
	if d.history != nil {
		sinks = append(sinks, d.history)
	}

	var opts []swapengine.Option
	if len(sinks) > 0 {
		opts = append(opts, swapengine.WithRecorder(cache.NewMultiRecorder(d.logger, sinks...)))
	}
	if d.flags != nil {
		opts = append(opts, swapengine.WithKillSwitch(d.flags))
	}
	if d.redis != nil {
		// without redis the daily limit only spans this process
		opts = append(opts, swapengine.WithSpendLedger(cache.NewRedisSpendLedger(d.redis.Client())))
	}
	return opts
}

func (d *deps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.history != nil {
		_ = d.history.Close()
	}
}
