package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var _ Listener = (*RedisListener)(nil)

// RedisListener receives change notifications published by the redis
// storage driver.
type RedisListener struct {
	hub

	client  *redis.Client
	channel string
	sub     *redis.PubSub
}

func NewRedisListener(client *redis.Client, channel string) *RedisListener {
	return &RedisListener{client: client, channel: channel}
}

// Start subscribes and waits for the subscription to be confirmed.
func (rl *RedisListener) Start() error {
	ctx := context.Background()
	rl.sub = rl.client.Subscribe(ctx, rl.channel)

	if _, err := rl.sub.Receive(ctx); err != nil {
		rl.sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", rl.channel, err)
	}

	slog.Info("PubSub started listening for storage changes", slog.String("channel", rl.channel))

	go func() {
		for msg := range rl.sub.Channel() {
			rl.dispatch(msg.Payload)
		}
	}()

	return nil
}

func (rl *RedisListener) Stop() {
	if rl.sub != nil {
		rl.sub.Close()
	}
	slog.Info("PubSub stopped")
}
