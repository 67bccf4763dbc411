package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	backend "github.com/redis/go-redis/v9"

	"kllc.dev/kllc/internal/engine"
)

// DefaultRedisPrefix namespaces kllc keys in a shared redis
const DefaultRedisPrefix = "kllc:"

// RedisStore keeps states as JSON strings in redis with a set of branch
// names as the index. Keys never expire.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore connects to redis at addr
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(branch string) string {
	return s.prefix + Key(branch)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *RedisStore) Get(ctx context.Context, branch string) (*engine.State, bool, error) {
	val, err := s.client.Get(ctx, s.key(branch)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from redis: %w", err)
	}
	state, err := decode(branch, val)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (s *RedisStore) Set(ctx context.Context, branch string, state *engine.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(branch), data, 0)
	pipe.SAdd(ctx, s.indexKey(), branch)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	branches, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	sort.Strings(branches)
	return branches, nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
