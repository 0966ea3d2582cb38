package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
)

// RoundTripCache holds recent round trips and fans them out live
type RoundTripCache interface {
	// AddRecentRoundTrip pushes an event onto the capped recent list
	AddRecentRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error

	// GetRecentRoundTrips returns the newest events first
	GetRecentRoundTrips(ctx context.Context, limit int64) ([]*models.RoundTripEvent, error)

	// PublishRoundTrip publishes an event to the Pub/Sub channel
	PublishRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error

	// SubscribeRoundTrips streams published events until ctx is done
	SubscribeRoundTrips(ctx context.Context) (<-chan *models.RoundTripEvent, error)

	Ping(ctx context.Context) error
	io.Closer
}

// RoundTripStore is the persistent history of round trips
type RoundTripStore interface {
	InsertRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error
	Ping(ctx context.Context) error
	io.Closer
}

// Recorder is what the engine needs to persist an outcome
type Recorder interface {
	Record(ctx context.Context, ev *models.RoundTripEvent) error
}
