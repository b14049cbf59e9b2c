package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-session-client/storage"
)

var _ storage.Store = (*Store)(nil)

// ErrRedisUnavailable wraps connection level failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "session-client"

// Store keeps keys in Redis under "<prefix>:<key>" without expiry.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New wraps an existing client. An empty prefix uses the default namespace.
func New(rdb redis.UniversalClient, prefix string) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("[redisstore New] redis client is required")
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("[redisstore Dial] %s: %w: %v", addr, ErrRedisUnavailable, err)
	}
	return New(rdb, prefix)
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("[redisstore Set] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[redisstore Get] %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("[redisstore Remove] %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
