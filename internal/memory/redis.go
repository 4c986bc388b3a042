package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/types"
)

// DefaultRedisKey is the hash holding discovery records
const DefaultRedisKey = "intel:discoveries"

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// RedisStore keeps discovery records in a hash keyed by normalized canonical name.
// HSETNX gives append-only semantics without a client-side lock.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStoreWithClient(client, opts.Key), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// List returns all records ordered by creation time
func (s *RedisStore) List(ctx context.Context) ([]types.DiscoveryRecord, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	records := make([]types.DiscoveryRecord, 0, len(values))
	for field, raw := range values {
		var rec types.DiscoveryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", field, err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
	return records, nil
}

// Insert stores rec unless its normalized canonical name exists
func (s *RedisStore) Insert(ctx context.Context, rec types.DiscoveryRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode record: %w", err)
	}

	ok, err := s.client.HSetNX(ctx, s.key, matching.Normalize(rec.CanonicalName), data).Result()
	if err != nil {
		return false, fmt.Errorf("failed to write record %s: %w", rec.CanonicalName, err)
	}
	return ok, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
