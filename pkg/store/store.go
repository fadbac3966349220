package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pkt.systems/pslog"
)

// Area partitions stored values the way browser extension storage does.
type Area string

const (
	AreaSync    Area = "sync"
	AreaLocal   Area = "local"
	AreaManaged Area = "managed"
)

// Areas lists every storage area.
var Areas = []Area{AreaSync, AreaLocal, AreaManaged}

// Valid reports whether a is a known area.
func (a Area) Valid() bool {
	switch a {
	case AreaSync, AreaLocal, AreaManaged:
		return true
	}
	return false
}

// ParseArea returns the area named s.
func ParseArea(s string) (Area, error) {
	a := Area(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown storage area %q (want sync, local or managed)", s)
	}
	return a, nil
}

// SyncQuotaBytesPerItem is the largest key plus value size accepted in the
// sync area.
const SyncQuotaBytesPerItem = 8192

var (
	// ErrQuotaExceeded is returned when a sync item is too large.
	ErrQuotaExceeded = errors.New("quota bytes per item exceeded")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrInvalidValue is returned when a value is not a JSON document.
	ErrInvalidValue = errors.New("value is not valid JSON")
	// ErrSchemaVersion is returned when a database was written by a newer
	// schema.
	ErrSchemaVersion = errors.New("unsupported schema version")
)

// Change describes a value transition under one key. OldValue is nil when
// the key was created; NewValue is nil when it was removed.
type Change struct {
	Area     Area
	Key      string
	OldValue json.RawMessage
	NewValue json.RawMessage
}

// Store persists JSON documents per area and key and reports changes to
// subscribers.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, area Area, key string) (json.RawMessage, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, area Area, key string, value json.RawMessage) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, area Area, key string) error

	// Subscribe delivers changes to key until cancel is called or the
	// store is closed.
	Subscribe(area Area, key string) (<-chan Change, func())

	// Close releases resources and ends all subscriptions.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string

	Logger pslog.Logger
}

// New creates a Store. ":memory:" selects MemoryStore, anything else is
// opened as a SQLite database file.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(WithLogger(cfg.Logger)), nil
	}

	return NewSQLite(cfg.Path, WithLogger(cfg.Logger))
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger pslog.Logger
}

// WithLogger sets the logger used for subscription diagnostics.
func WithLogger(logger pslog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: pslog.Ctx(context.Background())}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare checks area, key and value and returns the compacted value.
func prepare(area Area, key string, value json.RawMessage) (json.RawMessage, error) {
	if !area.Valid() {
		return nil, fmt.Errorf("unknown storage area %q", area)
	}
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	compact := json.RawMessage(buf.Bytes())

	if area == AreaSync && len(key)+len(compact) > SyncQuotaBytesPerItem {
		return nil, fmt.Errorf("%w: %q is %d bytes, limit %d", ErrQuotaExceeded, key, len(key)+len(compact), SyncQuotaBytesPerItem)
	}
	return compact, nil
}

func checkKey(area Area, key string) error {
	if !area.Valid() {
		return fmt.Errorf("unknown storage area %q", area)
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}

func clone(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}
