// Package redis stores the tracking record as a JSON document under a single
// Redis key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

// DefaultKey is the key used when none is configured.
const DefaultKey = "habitbot:record"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Key holds the serialized record.
	Key string

	// DialTimeout bounds the initial connection check.
	DialTimeout time.Duration
}

// DefaultConfig returns defaults for everything except the URL.
func DefaultConfig() Config {
	return Config{
		Key:         DefaultKey,
		DialTimeout: 5 * time.Second,
	}
}

// Options converts the URL into client options. Client-side retries are
// disabled: a failed command surfaces to the caller immediately.
func (c Config) Options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, errors.New("redis: URL is required")
	}
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
	}
	opts.MaxRetries = -1
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	return opts, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STORE
// ══════════════════════════════════════════════════════════════════════════════

// RecordStore implements tracking.Repository on a single Redis key holding
// the same JSON document the file driver writes.
type RecordStore struct {
	client *redis.Client
	key    string
}

// NewRecordStore connects to Redis and verifies the connection.
func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	return newRecordStore(client, cfg.Key), nil
}

func newRecordStore(client *redis.Client, key string) *RecordStore {
	if key == "" {
		key = DefaultKey
	}
	return &RecordStore{client: client, key: key}
}

// Key returns the Redis key holding the record.
func (s *RecordStore) Key() string {
	return s.key
}

// Load reads the record. A missing key is an empty record.
func (s *RecordStore) Load(ctx context.Context) (*tracking.Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return tracking.NewRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", s.key, err)
	}

	return decodeRecord(data)
}

// Save overwrites the key with the serialized record. The key never expires.
func (s *RecordStore) Save(ctx context.Context, rec *tracking.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encode record: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", s.key, err)
	}
	return nil
}

// Ping checks server reachability.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RecordStore) Close() error {
	return s.client.Close()
}

func decodeRecord(data []byte) (*tracking.Record, error) {
	var rec tracking.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redis: decode record: %w", err)
	}
	if rec.Days == nil {
		rec.Days = []tracking.CheckIn{}
	}
	return &rec, nil
}
