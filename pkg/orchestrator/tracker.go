package orchestrator

import (
	"context"
	"sync"

	"github.com/praetorian-inc/autogroup/pkg/browser"
)

// CreationTracker keeps track of tab groups being created, per window and
// group configuration, so that tabs assigned in quick succession join one
// new group instead of each creating their own.
//
// A creation stays in flight while any of its attempts is pending. The
// first attempt to succeed resolves it; failed attempts fall through to
// the ones still pending. When every attempt has failed, waiters are
// released empty-handed.
type CreationTracker struct {
	mu      sync.Mutex
	windows map[browser.WindowID]map[string]*creation
}

type creation struct {
	done    chan struct{}
	id      browser.GroupID
	ok      bool
	pending int
}

// NewCreationTracker creates an empty tracker.
func NewCreationTracker() *CreationTracker {
	return &CreationTracker{windows: make(map[browser.WindowID]map[string]*creation)}
}

// Attempt is one pending try at creating a group. Exactly one of Succeed
// or Fail takes effect; later calls are ignored.
type Attempt struct {
	tracker *CreationTracker
	window  browser.WindowID
	groupID string
	c       *creation
	once    sync.Once
}

// Begin registers an attempt at creating the group for configuration
// groupID in window.
func (t *CreationTracker) Begin(window browser.WindowID, groupID string) *Attempt {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.begin(window, groupID)
}

func (t *CreationTracker) begin(window browser.WindowID, groupID string) *Attempt {
	inWindow := t.windows[window]
	if inWindow == nil {
		inWindow = make(map[string]*creation)
		t.windows[window] = inWindow
	}
	c := inWindow[groupID]
	if c == nil {
		c = &creation{done: make(chan struct{})}
		inWindow[groupID] = c
	}
	c.pending++
	return &Attempt{tracker: t, window: window, groupID: groupID, c: c}
}

// Claim begins an attempt only when nothing is in flight for
// (window, groupID). ok is false when another caller is already creating
// the group; wait for it with Wait.
func (t *CreationTracker) Claim(window browser.WindowID, groupID string) (a *Attempt, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.windows[window][groupID]; busy {
		return nil, false
	}
	return t.begin(window, groupID), true
}

// Succeed resolves the creation with the new group's ID.
func (a *Attempt) Succeed(id browser.GroupID) {
	a.once.Do(func() {
		a.tracker.settle(a, func(c *creation) bool {
			c.id = id
			c.ok = true
			return true
		})
	})
}

// Fail withdraws the attempt.
func (a *Attempt) Fail() {
	a.once.Do(func() {
		a.tracker.settle(a, func(c *creation) bool {
			return c.pending == 0
		})
	})
}

func (t *CreationTracker) settle(a *Attempt, finish func(*creation) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := a.c
	c.pending--
	if isDone(c) || !finish(c) {
		return
	}
	close(c.done)
	if inWindow := t.windows[a.window]; inWindow != nil && inWindow[a.groupID] == c {
		delete(inWindow, a.groupID)
		if len(inWindow) == 0 {
			delete(t.windows, a.window)
		}
	}
}

// InFlight reports whether a creation is pending for (window, groupID).
func (t *CreationTracker) InFlight(window browser.WindowID, groupID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.windows[window][groupID]
	return ok
}

// Wait blocks until the pending creation for (window, groupID) settles.
// ok is false when nothing is in flight, when every attempt failed or when
// the window was forgotten. err is set only when ctx ends first.
func (t *CreationTracker) Wait(ctx context.Context, window browser.WindowID, groupID string) (id browser.GroupID, ok bool, err error) {
	t.mu.Lock()
	c := t.windows[window][groupID]
	t.mu.Unlock()
	if c == nil {
		return 0, false, nil
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return c.id, c.ok, nil
}

// Forget drops every creation of a closed window and releases its waiters.
func (t *CreationTracker) Forget(window browser.WindowID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.windows[window] {
		if !isDone(c) {
			close(c.done)
		}
	}
	delete(t.windows, window)
}

// Len returns the number of windows with creations in flight.
func (t *CreationTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.windows)
}

func isDone(c *creation) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
