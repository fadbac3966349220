package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	notify *notifier

	// mu orders writes so subscribers observe changes in commit order.
	mu     sync.Mutex
	closed bool
}

// NewSQLite opens (or creates) the database at path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	version, err := ReadSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version > SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%s: %w (database v%d, supported v%d)", path, ErrSchemaVersion, version, SchemaVersion)
	}

	return &SQLiteStore{db: db, notify: newNotifier(o.logger)}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, area Area, key string) (json.RawMessage, bool, error) {
	if err := checkKey(area, key); err != nil {
		return nil, false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE area = ? AND key = ?", string(area), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrap("querying value", err)
	}
	return json.RawMessage(value), true, nil
}

// Set stores value under key and notifies subscribers.
func (s *SQLiteStore) Set(ctx context.Context, area Area, key string, value json.RawMessage) error {
	compact, err := prepare(area, key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := lookup(ctx, tx, area, key)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (area, key, value) VALUES (?, ?, ?)
		ON CONFLICT (area, key) DO UPDATE SET value = excluded.value
	`, string(area), key, string(compact))
	if err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing value: %w", err)
	}

	s.notify.publish(Change{Area: area, Key: key, OldValue: old, NewValue: clone(compact)})
	return nil
}

// Remove deletes key and notifies subscribers if it existed.
func (s *SQLiteStore) Remove(ctx context.Context, area Area, key string) error {
	if err := checkKey(area, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := lookup(ctx, tx, area, key)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE area = ? AND key = ?", string(area), key); err != nil {
		return fmt.Errorf("deleting value: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	s.notify.publish(Change{Area: area, Key: key, OldValue: old})
	return nil
}

// Subscribe delivers changes to key.
func (s *SQLiteStore) Subscribe(area Area, key string) (<-chan Change, func()) {
	return s.notify.subscribe(area, key)
}

// Close ends subscriptions and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.notify.close()
	return s.db.Close()
}

func (s *SQLiteStore) wrap(op string, err error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}

func lookup(ctx context.Context, tx *sql.Tx, area Area, key string) (json.RawMessage, error) {
	var value string
	err := tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE area = ? AND key = ?", string(area), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading current value: %w", err)
	}
	return json.RawMessage(value), nil
}
