package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage stores values as plain Redis strings under keyPrefix+key.
// Values never expire. Every write is announced on ChangesChannel as a
// "key:operation" message.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStorage wraps a ready-to-use client. keyPrefix defaults to "folio:".
func NewRedisStorage(client *redis.Client, keyPrefix string) *RedisStorage {
	if keyPrefix == "" {
		keyPrefix = "folio:"
	}

	return &RedisStorage{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	s.publish(ctx, key, "SET")
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	s.publish(ctx, key, "DELETE")
	return nil
}

// Client returns the underlying connection.
func (s *RedisStorage) Client() *redis.Client {
	return s.client
}

// ChangesChannel is the pub/sub channel carrying change notifications.
func (s *RedisStorage) ChangesChannel() string {
	return s.keyPrefix + "changes"
}

// publish is best effort; the value is already stored.
func (s *RedisStorage) publish(ctx context.Context, key, op string) {
	if err := s.client.Publish(ctx, s.ChangesChannel(), key+":"+op).Err(); err != nil {
		slog.WarnContext(ctx, "Unable to publish storage change", slog.String("key", key), slog.Any("error", err))
	}
}
