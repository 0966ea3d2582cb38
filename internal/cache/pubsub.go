package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
)

// PublishRoundTrip sends ev to the live channel and to its pair channel.
func (r *RedisCache) PublishRoundTrip(ctx context.Context, ev *models.RoundTripEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal round trip: %w", err)
	}

	channels := []string{constants.PubSubChannelRoundTrips}
	if ev.Pair != "" {
		channels = append(channels, pairChannel(ev.Pair))
	}

	pipe := r.client.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish round trip: %w", err)
	}
	return nil
}

// SubscribeRoundTrips streams events from the live channel. The returned
// channel is closed once ctx is done.
func (r *RedisCache) SubscribeRoundTrips(ctx context.Context) (<-chan *models.RoundTripEvent, error) {
	sub := r.client.Subscribe(ctx, constants.PubSubChannelRoundTrips)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", constants.PubSubChannelRoundTrips, err)
	}

	out := make(chan *models.RoundTripEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.RoundTripEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.logger.WithError(err).Warn("dropping malformed round trip message")
					continue
				}
				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func pairChannel(pair string) string {
	return constants.PubSubChannelRoundTrips + ":pair:" + pair
}
