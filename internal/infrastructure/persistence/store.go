// Package persistence selects a storage driver and guards the tracking
// record with a single writer.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/pkg/logger"
)

// Backend is what every storage driver provides.
type Backend interface {
	tracking.Repository
	tracking.Pinger
	io.Closer
}

// Storage operation labels for metrics.
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpFallback = "fallback"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERIALIZED STORE
// ══════════════════════════════════════════════════════════════════════════════

// SerializedStore wraps a backend so that every read-modify-write happens
// under one mutex. Message handlers and scheduled jobs share one instance.
type SerializedStore struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Metrics

	// strict makes Update fail on a load error instead of writing the
	// empty fallback record over whatever the backend still holds.
	strict bool

	mu sync.Mutex
}

// StoreOption configures a SerializedStore.
type StoreOption func(*SerializedStore)

// WithStrictUpdates makes Update return load errors. Load keeps falling back.
func WithStrictUpdates() StoreOption {
	return func(s *SerializedStore) {
		s.strict = true
	}
}

// IsNetworkDriver reports whether the driver talks to a server, where a
// failed read is usually transient rather than a missing or broken file.
func IsNetworkDriver(driver string) bool {
	return driver == DriverPostgres || driver == DriverRedis
}

// NewSerializedStore wraps backend. Metrics may be nil.
func NewSerializedStore(backend Backend, log *slog.Logger, m *metrics.Metrics, opts ...StoreOption) *SerializedStore {
	if log == nil {
		log = slog.Default()
	}
	s := &SerializedStore{
		backend: backend,
		logger:  log.With(logger.Component("store")),
		metrics: m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the current record. It never fails: any backend error is
// logged and replaced with an empty record.
func (s *SerializedStore) Load(ctx context.Context) *tracking.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Update loads the record, applies fn and saves the result.
// fn returning tracking.ErrNoChange skips the save and is not an error;
// any other error from fn aborts without saving. In strict mode a load
// error aborts before fn runs.
func (s *SerializedStore) Update(ctx context.Context, fn func(*tracking.Record) error) (*tracking.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec *tracking.Record
	if s.strict {
		var err error
		if rec, err = s.loadStrict(ctx); err != nil {
			return nil, err
		}
	} else {
		rec = s.load(ctx)
	}

	if err := fn(rec); err != nil {
		if errors.Is(err, tracking.ErrNoChange) {
			return rec, nil
		}
		return rec, err
	}

	err := s.backend.Save(ctx, rec)
	s.metrics.RecordStoreOp(OpSave, err)
	if err != nil {
		return rec, fmt.Errorf("save record: %w", err)
	}

	return rec, nil
}

// Ping reports backend reachability.
func (s *SerializedStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close closes the backend.
func (s *SerializedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Close()
}

func (s *SerializedStore) load(ctx context.Context) *tracking.Record {
	rec, err := s.backend.Load(ctx)
	s.metrics.RecordStoreOp(OpLoad, err)
	if err != nil || rec == nil {
		s.metrics.RecordStoreOp(OpFallback, nil)
		s.logger.WarnContext(ctx, "failed to load record, starting from empty state",
			logger.Err(err),
		)
		return tracking.NewRecord()
	}
	if rec.Days == nil {
		rec.Days = []tracking.CheckIn{}
	}
	return rec
}

func (s *SerializedStore) loadStrict(ctx context.Context) (*tracking.Record, error) {
	rec, err := s.backend.Load(ctx)
	s.metrics.RecordStoreOp(OpLoad, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load record, refusing to write", logger.Err(err))
		return nil, fmt.Errorf("load record: %w", err)
	}
	if rec == nil {
		rec = tracking.NewRecord()
	}
	if rec.Days == nil {
		rec.Days = []tracking.CheckIn{}
	}
	return rec, nil
}
