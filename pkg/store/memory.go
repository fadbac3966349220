package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore implements Store using in-memory maps.
// Values are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[Area]map[string]json.RawMessage
	notify *notifier
	closed bool
}

// NewMemory creates a new in-memory store.
func NewMemory(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		data:   make(map[Area]map[string]json.RawMessage),
		notify: newNotifier(o.logger),
	}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, area Area, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := checkKey(area, key); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[area][key]
	return clone(v), ok, nil
}

// Set stores value under key and notifies subscribers.
func (m *MemoryStore) Set(ctx context.Context, area Area, key string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	compact, err := prepare(area, key, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	values := m.data[area]
	if values == nil {
		values = make(map[string]json.RawMessage)
		m.data[area] = values
	}
	old := values[key]
	values[key] = compact
	m.notify.publish(Change{Area: area, Key: key, OldValue: clone(old), NewValue: clone(compact)})
	return nil
}

// Remove deletes key and notifies subscribers if it existed.
func (m *MemoryStore) Remove(ctx context.Context, area Area, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(area, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	old, ok := m.data[area][key]
	if !ok {
		return nil
	}
	delete(m.data[area], key)
	m.notify.publish(Change{Area: area, Key: key, OldValue: clone(old)})
	return nil
}

// Subscribe delivers changes to key.
func (m *MemoryStore) Subscribe(area Area, key string) (<-chan Change, func()) {
	return m.notify.subscribe(area, key)
}

// Close drops all values and ends subscriptions.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	m.notify.close()
	return nil
}
