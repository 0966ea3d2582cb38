package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/cache"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/config"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream round trips as they are recorded",
		RunE:  runWatch,
	}
}

// runWatch only needs Redis, so it does not load the trading configuration.
func runWatch(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	loadEnv(cmd, logger)
	setLevel(cmd, logger, os.Getenv("LOG_LEVEL"))

	addr, err := config.GetOrFail(config.KeyRedisAddr)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, Logger: logger})
	if err != nil {
		return err
	}
	defer rc.Close()

	events, err := rc.SubscribeRoundTrips(ctx)
	if err != nil {
		return err
	}

	logger.Info("watching round trips, press Ctrl+C to stop")
	for ev := range events {
		logger.WithFields(logrus.Fields{
			"signature": ev.Signature,
			"pair":      ev.Pair,
			"status":    ev.Status,
			"amount_in": ev.AmountIn,
			"leg2_out":  ev.LegTwoOut,
			"slot":      ev.Slot,
		}).Info("round trip")
	}
	return nil
}
