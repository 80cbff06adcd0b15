package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridecipher/internal/domain"
)

// DefaultPrefix namespaces every key the Redis store writes.
const DefaultPrefix = "ridecipher"

// RedisRecordStore keeps records in one Redis list per ride.
type RedisRecordStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisRecordStore wraps client. A non-positive ttl keeps lists forever.
// The store takes ownership of client and closes it on Close.
func NewRedisRecordStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisRecordStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisRecordStore{redis: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// OpenRedis parses a redis:// URL, pings the server and returns a store.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisRecordStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return NewRedisRecordStore(client, DefaultPrefix, ttl), nil
}

func (s *RedisRecordStore) key(ride domain.RideID) string {
	return s.prefix + ":ride:" + string(ride) + ":records"
}

// Append pushes rec onto its ride's list and refreshes the list TTL.
func (s *RedisRecordStore) Append(ctx context.Context, rec domain.EncryptedRecord) (string, error) {
	stored, err := newStoredRecord(rec, s.now())
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}

	key := s.key(rec.RideID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return stored.ID, nil
}

// List returns a ride's records in append order. An unknown ride yields an
// empty slice.
func (s *RedisRecordStore) List(ctx context.Context, ride domain.RideID) ([]domain.StoredRecord, error) {
	items, err := s.redis.LRange(ctx, s.key(ride), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	out := make([]domain.StoredRecord, 0, len(items))
	for _, item := range items {
		var rec domain.StoredRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("store: decode record for ride %s: %w", ride, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteRide drops every record of ride.
func (s *RedisRecordStore) DeleteRide(ctx context.Context, ride domain.RideID) error {
	if err := s.redis.Del(ctx, s.key(ride)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisRecordStore) Close() error { return s.redis.Close() }

var _ domain.RecordStore = (*RedisRecordStore)(nil)
