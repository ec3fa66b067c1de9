package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher receives every snapshot the Runner produces.
type Publisher interface {
	Publish(ctx context.Context, s *Snapshot) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, s *Snapshot) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, s *Snapshot) error { return f(ctx, s) }

// RedisPublisher stores the latest snapshot under a key and announces it on
// a channel, in one transaction.
type RedisPublisher struct {
	client  *redis.Client
	Key     string
	Channel string
	TTL     time.Duration // 0 keeps the key until overwritten
}

// NewRedisPublisher connects to url (redis://...). Key defaults to
// "<channel>:latest".
func NewRedisPublisher(url, channel string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if channel == "" {
		channel = "baloot:view"
	}
	return &RedisPublisher{
		client:  redis.NewClient(opt),
		Key:     channel + ":latest",
		Channel: channel,
	}, nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish writes s as JSON.
func (p *RedisPublisher) Publish(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.Key, data, p.TTL)
		pipe.Publish(ctx, p.Channel, data)
		return nil
	})
	return err
}

// Close releases the client.
func (p *RedisPublisher) Close() error { return p.client.Close() }
