package cache

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/storage"
)

// MultiRecorder fans an event out to every sink. A failing sink does not
// stop the others.
type MultiRecorder struct {
	sinks  []storage.Recorder
	logger *logrus.Logger
}

func NewMultiRecorder(logger *logrus.Logger, sinks ...storage.Recorder) *MultiRecorder {
	if logger == nil {
		logger = logrus.New()
	}
	out := &MultiRecorder{logger: logger}
	for _, s := range sinks {
		if s != nil {
			out.sinks = append(out.sinks, s)
		}
	}
	return out
}

func (m *MultiRecorder) Len() int { return len(m.sinks) }

func (m *MultiRecorder) Record(ctx context.Context, ev *models.RoundTripEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, ev); err != nil {
			m.logger.WithFields(logrus.Fields{
				"signature": ev.Signature,
				"sink":      sinkName(s),
			}).WithError(err).Warn("failed to record round trip")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sinkName(s storage.Recorder) string {
	switch s.(type) {
	case *RedisCache:
		return "redis"
	case *ClickHouseStore:
		return "clickhouse"
	default:
		return "custom"
	}
}

var (
	_ storage.RoundTripCache = (*RedisCache)(nil)
	_ storage.RoundTripStore = (*ClickHouseStore)(nil)
	_ storage.Recorder       = (*RedisCache)(nil)
	_ storage.Recorder       = (*ClickHouseStore)(nil)
)
