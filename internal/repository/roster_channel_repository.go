package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RosterChannelRepository carries roster change messages over Redis pub/sub.
type RosterChannelRepository struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRosterChannelRepository constructs the repository for one channel.
func NewRosterChannelRepository(client *redis.Client, channel string, logger *zap.Logger) *RosterChannelRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterChannelRepository{client: client, channel: channel, logger: logger}
}

// Publish sends payload to the channel.
func (r *RosterChannelRepository) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// Subscribe delivers channel payloads until ctx is cancelled, then closes the
// returned channel.
func (r *RosterChannelRepository) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					r.logger.Warn("roster channel closed", zap.String("channel", r.channel))
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
