package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"pkt.systems/pslog"
)

// Mapper converts a stored value into the handle's value type. exists is
// false when nothing is stored under the key.
type Mapper[T any] func(raw json.RawMessage, exists bool) (T, error)

// Registry owns the watched handles of one store. Each (area, key) is
// loaded at most once; concurrent opens share the load.
type Registry struct {
	store Store
	log   pslog.Logger

	group singleflight.Group

	mu      sync.Mutex
	handles map[subKey]closer
	closed  bool
}

type closer interface {
	close()
}

// NewRegistry creates a registry over s. A nil logger falls back to the
// context logger.
func NewRegistry(s Store, logger pslog.Logger) *Registry {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Registry{
		store:   s,
		log:     logger,
		handles: make(map[subKey]closer),
	}
}

// Store returns the underlying store.
func (r *Registry) Store() Store {
	return r.store
}

// Open returns the handle for (area, key), loading it on first use. A key
// is bound to the value type of its first Open.
func Open[T any](ctx context.Context, r *Registry, area Area, key string, mapper Mapper[T]) (*Handle[T], error) {
	if err := checkKey(area, key); err != nil {
		return nil, err
	}
	k := subKey{area: area, key: key}

	if h, ok, err := lookupHandle[T](r, k); ok || err != nil {
		return h, err
	}

	v, err, _ := r.group.Do(string(area)+"\x00"+key, func() (any, error) {
		if h, ok, err := lookupHandle[T](r, k); ok || err != nil {
			return h, err
		}
		h, err := newHandle(ctx, r, area, key, mapper)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			h.close()
			return nil, ErrClosed
		}
		r.handles[k] = h
		r.mu.Unlock()
		r.log.With("area", area, "key", key).Debug("store handle opened")
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	h, ok := v.(*Handle[T])
	if !ok {
		return nil, fmt.Errorf("handle %s/%s is open with a different value type", area, key)
	}
	return h, nil
}

func lookupHandle[T any](r *Registry, k subKey) (*Handle[T], bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	existing, ok := r.handles[k]
	if !ok {
		return nil, false, nil
	}
	h, ok := existing.(*Handle[T])
	if !ok {
		return nil, false, fmt.Errorf("handle %s/%s is open with a different value type", k.area, k.key)
	}
	return h, true, nil
}

// Close tears down every handle. Further opens fail with ErrClosed.
// The underlying store is left open.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	handles := r.handles
	r.handles = nil
	r.mu.Unlock()

	for _, h := range handles {
		h.close()
	}
}

// Handle is a watched value kept in sync with one store key.
type Handle[T any] struct {
	store  Store
	area   Area
	key    string
	mapper Mapper[T]
	log    pslog.Logger

	mu     sync.RWMutex
	value  T
	loaded bool
	subs   map[chan T]struct{}

	cancel func()
	done   chan struct{}
}

func newHandle[T any](ctx context.Context, r *Registry, area Area, key string, mapper Mapper[T]) (*Handle[T], error) {
	h := &Handle[T]{
		store:  r.store,
		area:   area,
		key:    key,
		mapper: mapper,
		log:    r.log.With("area", area, "key", key),
		subs:   make(map[chan T]struct{}),
		done:   make(chan struct{}),
	}

	// Subscribe before the first read so no change is missed.
	changes, cancel := r.store.Subscribe(area, key)
	h.cancel = cancel

	raw, exists, err := r.store.Get(ctx, area, key)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("loading %s/%s: %w", area, key, err)
	}
	value, err := mapper(raw, exists)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mapping %s/%s: %w", area, key, err)
	}
	h.value = value
	h.loaded = true

	go h.watch(changes)
	return h, nil
}

func (h *Handle[T]) watch(changes <-chan Change) {
	defer close(h.done)
	for c := range changes {
		value, err := h.mapper(c.NewValue, c.NewValue != nil)
		if err != nil {
			h.log.Warn("store handle mapping failed", "err", err)
			continue
		}
		h.apply(value)
	}
}

func (h *Handle[T]) apply(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = value
	h.loaded = true
	for sub := range h.subs {
		select {
		case sub <- value:
		default:
			h.log.Warn("store handle update dropped")
		}
	}
}

// Area returns the handle's storage area.
func (h *Handle[T]) Area() Area { return h.area }

// Key returns the handle's storage key.
func (h *Handle[T]) Key() string { return h.key }

// Loaded reports whether the initial value has been read.
func (h *Handle[T]) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// Value returns the current mapped value.
func (h *Handle[T]) Value() T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value
}

// Set writes raw to the store and applies it locally once stored.
func (h *Handle[T]) Set(ctx context.Context, raw json.RawMessage) error {
	if err := h.store.Set(ctx, h.area, h.key, raw); err != nil {
		return err
	}
	value, err := h.mapper(raw, true)
	if err != nil {
		return fmt.Errorf("mapping %s/%s: %w", h.area, h.key, err)
	}
	h.mu.Lock()
	h.value = value
	h.mu.Unlock()
	return nil
}

// Subscribe delivers every value applied from a store change.
func (h *Handle[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, subscriberDepth)
	h.mu.Lock()
	if h.subs == nil {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *Handle[T]) close() {
	h.cancel()
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	h.subs = nil
	h.log.Debug("store handle closed")
}
