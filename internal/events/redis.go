package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ayusman/gestpipe/internal/config"
)

// RedisPublisher publishes accepted gesture events on <prefix>:events and
// keeps the latest one at <prefix>:last_event.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher creates a publisher from cfg. It does not dial; use Ping
// to check connectivity.
func NewRedisPublisher(cfg config.Redis) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisPublisherWithClient(client, cfg.Prefix)
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Key formats a key with the configured prefix.
func (p *RedisPublisher) Key(name string) string {
	return fmt.Sprintf("%s:%s", p.prefix, name)
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	log.Printf("Connected to Redis at %s", p.client.Options().Addr)
	return nil
}

// Publish sends accepted gesture events; everything else is ignored.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.Kind != KindGesture || !e.Accepted {
		return nil
	}
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.Key("events"), msg)
	pipe.Set(ctx, p.Key("last_event"), msg, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
