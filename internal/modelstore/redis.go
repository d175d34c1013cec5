package modelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces artifact keys in Redis.
const KeyPrefix = "goals:model:"

// RedisStore keeps each artifact in a hash holding the blob and its save time.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore from a Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Key returns the Redis key of an artifact.
func Key(name string) string {
	return KeyPrefix + name
}

// Save writes an artifact, replacing any previous version.
func (s *RedisStore) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := s.client.HSet(ctx, Key(name), map[string]any{
		"data":     data,
		"saved_at": time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// Load reads an artifact.
func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, Key(name), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load artifact %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	return data, nil
}

// Stat reports the size and save time of an artifact.
func (s *RedisStore) Stat(ctx context.Context, name string) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	fields, err := s.client.HGetAll(ctx, Key(name)).Result()
	if err != nil {
		return Info{}, fmt.Errorf("stat artifact %s: %w", name, err)
	}
	data, ok := fields["data"]
	if !ok {
		return Info{}, fmt.Errorf("stat artifact %s: %w", name, ErrNotFound)
	}
	info := Info{Name: name, Size: int64(len(data))}
	if ts, err := time.Parse(time.RFC3339Nano, fields["saved_at"]); err == nil {
		info.SavedAt = ts
	}
	return info, nil
}

// Delete removes an artifact.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.client.Del(ctx, Key(name)).Err(); err != nil {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}
