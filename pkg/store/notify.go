package store

import (
	"bytes"
	"sync"

	"pkt.systems/pslog"
)

const subscriberDepth = 64

type subKey struct {
	area Area
	key  string
}

// notifier fans changes out to per-key subscribers. Sends happen under
// the lock so a cancelled subscriber is never sent to after close.
type notifier struct {
	mu     sync.Mutex
	subs   map[subKey]map[chan Change]struct{}
	log    pslog.Logger
	closed bool
}

func newNotifier(logger pslog.Logger) *notifier {
	return &notifier{
		subs: make(map[subKey]map[chan Change]struct{}),
		log:  logger,
	}
}

func (n *notifier) subscribe(area Area, key string) (<-chan Change, func()) {
	ch := make(chan Change, subscriberDepth)
	k := subKey{area: area, key: key}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	keySubs := n.subs[k]
	if keySubs == nil {
		keySubs = make(map[chan Change]struct{})
		n.subs[k] = keySubs
	}
	keySubs[ch] = struct{}{}
	count := len(keySubs)
	n.mu.Unlock()
	n.log.With("area", area, "key", key).Debug("store subscribe", "subs", count)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			subs := n.subs[k]
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			if len(subs) == 0 {
				delete(n.subs, k)
			}
			close(ch)
			n.log.With("area", area, "key", key).Debug("store unsubscribe")
		})
	}
}

// publish delivers c unless the value did not change.
func (n *notifier) publish(c Change) {
	if bytes.Equal(c.OldValue, c.NewValue) {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	subs := n.subs[subKey{area: c.Area, key: c.Key}]
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for sub := range subs {
		select {
		case sub <- c:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		n.log.With("area", c.Area, "key", c.Key).Warn("store change dropped", "count", dropped)
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for k, subs := range n.subs {
		for ch := range subs {
			close(ch)
		}
		delete(n.subs, k)
	}
}
