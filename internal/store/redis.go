// Package store provides key-value storage backends for Tandem.
//
// This file implements the Redis-backed production store.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Opts holds configuration options for the Redis store.
type Opts struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// URL is a full redis:// connection URL; takes precedence over Addr.
	URL string
	// Password is the optional server password.
	Password string
	// DB is the logical database number.
	DB int
}

// Option defines a configuration option for the Redis store.
type Option func(*Opts)

// WithAddr sets the Redis server address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithURL sets a full Redis connection URL.
func WithURL(url string) Option {
	return func(o *Opts) { o.URL = url }
}

// WithPassword sets the Redis server password.
func WithPassword(password string) Option {
	return func(o *Opts) { o.Password = password }
}

// WithDB sets the logical database number.
func WithDB(db int) Option {
	return func(o *Opts) { o.DB = db }
}

// RedisStore implements KV on top of a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewRedisStore invoked", "url_set", cfg.URL != "", "addr", cfg.Addr, "db", cfg.DB)

	var client *redis.Client
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			slog.Error("RedisStore failed to parse URL", "error", err)
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		client = redis.NewClient(parsed)
	} else {
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Debug("Redis ping successful")

	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// GetString returns the scalar value at key.
func (s *RedisStore) GetString(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return v, true, nil
}

// SetString writes the scalar value at key.
func (s *RedisStore) SetString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// HashGet returns the named hash fields, nil per absent field.
func (s *RedisStore) HashGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	raw, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET %s: %w", key, err)
	}
	out := make([]*string, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("redis HMGET %s: unexpected value type %T for field %s", key, v, fields[i])
		}
		out[i] = &str
	}
	return out, nil
}

// HashGetAll returns every field of the hash at key.
func (s *RedisStore) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", key, err)
	}
	return m, nil
}

// HashSet writes a single hash field.
func (s *RedisStore) HashSet(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("redis HSET %s.%s: %w", key, field, err)
	}
	return nil
}

// HashSetMultiple writes several hash fields in one call.
func (s *RedisStore) HashSetMultiple(ctx context.Context, key string, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(pairs)*2)
	for f, v := range pairs {
		args = append(args, f, v)
	}
	if err := s.client.HSet(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	return nil
}

// HashDeleteFields removes the named fields from the hash at key.
func (s *RedisStore) HashDeleteFields(ctx context.Context, key string, fields ...string) error {
	if err := s.client.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("redis HDEL %s: %w", key, err)
	}
	return nil
}

// HashIncrement atomically adds by to an integer hash field.
func (s *RedisStore) HashIncrement(ctx context.Context, key, field string, by int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, by).Result()
	if err != nil {
		return 0, fmt.Errorf("redis HINCRBY %s.%s: %w", key, field, err)
	}
	return n, nil
}

// HashExists reports whether the hash at key has the named field.
func (s *RedisStore) HashExists(ctx context.Context, key, field string) (bool, error) {
	ok, err := s.client.HExists(ctx, key, field).Result()
	if err != nil {
		return false, fmt.Errorf("redis HEXISTS %s.%s: %w", key, field, err)
	}
	return ok, nil
}

// Exists reports whether any value is stored at key.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS %s: %w", key, err)
	}
	return n > 0, nil
}

// SetContainsMember reports whether member is in the set at setKey.
func (s *RedisStore) SetContainsMember(ctx context.Context, setKey, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, setKey, member).Result()
	if err != nil {
		return false, fmt.Errorf("redis SISMEMBER %s: %w", setKey, err)
	}
	return ok, nil
}

// SetMembers returns all members of the set at setKey.
func (s *RedisStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", setKey, err)
	}
	return members, nil
}

// SetAddMember adds member to the set at setKey.
func (s *RedisStore) SetAddMember(ctx context.Context, setKey, member string) error {
	if err := s.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("redis SADD %s: %w", setKey, err)
	}
	return nil
}

// ListIndex returns the element at idx of the list at listKey.
func (s *RedisStore) ListIndex(ctx context.Context, listKey string, idx int64) (string, bool, error) {
	v, err := s.client.LIndex(ctx, listKey, idx).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis LINDEX %s[%d]: %w", listKey, idx, err)
	}
	return v, true, nil
}

// ListLength returns the length of the list at listKey.
func (s *RedisStore) ListLength(ctx context.Context, listKey string) (int64, error) {
	n, err := s.client.LLen(ctx, listKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis LLEN %s: %w", listKey, err)
	}
	return n, nil
}

// ListPush appends values to the list at listKey.
func (s *RedisStore) ListPush(ctx context.Context, listKey string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := s.client.RPush(ctx, listKey, args...).Err(); err != nil {
		return fmt.Errorf("redis RPUSH %s: %w", listKey, err)
	}
	return nil
}

// Delete removes the given keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}
