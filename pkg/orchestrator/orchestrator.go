// Package orchestrator keeps the browser's tab groups in line with the
// group configurations: it assigns tabs to the group their URL resolves
// to, follows configuration changes, and writes manual title and color
// edits made in the browser back into the configurations.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup/pkg/browser"
	"github.com/praetorian-inc/autogroup/pkg/conflict"
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/resolver"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// Configurations provides the current group configurations and persists
// edits.
type Configurations interface {
	Groups() []types.GroupConfiguration
	Save(ctx context.Context, groups []types.GroupConfiguration) error
}

// Config configures an Orchestrator.
type Config struct {
	Browser        browser.API
	Configurations Configurations

	// Resolver defaults to one with its own compiler cache.
	Resolver *resolver.Resolver
	Logger   pslog.Logger

	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// Orchestrator groups browser tabs according to group configurations.
type Orchestrator struct {
	browser    browser.API
	configs    Configurations
	resolver   *resolver.Resolver
	tracker    *CreationTracker
	log        pslog.Logger
	retryDelay time.Duration

	mu       sync.Mutex
	loaded   bool
	groups   []types.GroupConfiguration
	compiled []pattern.CompiledGroup
	expected map[browser.GroupID][]browser.TabGroup
	dragging map[browser.TabID]struct{}

	wg sync.WaitGroup
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Browser == nil {
		return nil, errors.New("browser is required")
	}
	if cfg.Configurations == nil {
		return nil, errors.New("configurations are required")
	}
	r := cfg.Resolver
	if r == nil {
		var err error
		if r, err = resolver.New(nil); err != nil {
			return nil, fmt.Errorf("creating resolver: %w", err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return &Orchestrator{
		browser:    cfg.Browser,
		configs:    cfg.Configurations,
		resolver:   r,
		tracker:    NewCreationTracker(),
		log:        logger,
		retryDelay: delay,
		expected:   make(map[browser.GroupID][]browser.TabGroup),
		dragging:   make(map[browser.TabID]struct{}),
	}, nil
}

// Tracker returns the group creation tracker.
func (o *Orchestrator) Tracker() *CreationTracker {
	return o.tracker
}

// Run groups every tab, then follows browser events and configuration
// updates until ctx ends. In-flight assignments are awaited before it
// returns.
func (o *Orchestrator) Run(ctx context.Context, updates <-chan []types.GroupConfiguration) error {
	events, cancel := o.browser.Events()
	defer cancel()
	defer o.wg.Wait()

	if err := o.SetGroups(ctx, o.configs.Groups()); err != nil {
		return err
	}
	if err := o.AssignAll(ctx); err != nil {
		return fmt.Errorf("initial grouping: %w", err)
	}
	o.log.Info("initial grouping done")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			o.HandleEvent(ctx, ev)
		case groups, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := o.SetGroups(ctx, groups); err != nil {
				o.log.Warn("applying configuration update failed", "err", err)
			}
		}
	}
}

// GroupFor returns the configuration tab belongs to. Pinned tabs and tabs
// without a URL belong to none.
func (o *Orchestrator) GroupFor(tab browser.Tab) (types.GroupConfiguration, bool) {
	if tab.Pinned {
		o.log.With("tab", tab.ID).Trace("tab pinned, ignore")
		return types.GroupConfiguration{}, false
	}
	if tab.URL == "" {
		o.log.With("tab", tab.ID).Trace("tab has no URL, ignore")
		return types.GroupConfiguration{}, false
	}

	o.mu.Lock()
	compiled := o.compiled
	o.mu.Unlock()

	g := resolver.ResolveCompiled(tab.URL, compiled)
	if g == nil {
		return types.GroupConfiguration{}, false
	}
	return g.Clone(), true
}

// SetGroups replaces the configurations. The first call only records the
// baseline; later calls rename, ungroup and regroup tabs as the change
// requires.
func (o *Orchestrator) SetGroups(ctx context.Context, groups []types.GroupConfiguration) error {
	return o.applyGroups(ctx, groups, 0)
}

// applyGroups is SetGroups leaving the live group skip untouched by renames.
func (o *Orchestrator) applyGroups(ctx context.Context, groups []types.GroupConfiguration, skip browser.GroupID) error {
	next := types.CloneGroups(groups)
	compiled := o.resolver.Compile(next)

	o.mu.Lock()
	prev, wasLoaded := o.groups, o.loaded
	o.groups, o.compiled, o.loaded = next, compiled, true
	o.mu.Unlock()

	if !wasLoaded {
		o.log.Debug("group configurations loaded", "groups", len(next))
		return nil
	}

	c := diffGroups(prev, next)
	if c.empty() {
		return nil
	}
	o.log.Debug("group configurations changed",
		"added", len(c.added), "deleted", len(c.deleted), "renamed", len(c.renamed), "rematched", len(c.rematched))

	var errs []error
	if len(c.renamed) > 0 {
		errs = append(errs, o.renameLiveGroups(ctx, c.renamed, skip))
	}
	if len(c.deleted) > 0 {
		errs = append(errs, o.ungroupDeleted(ctx, c.deleted))
	}
	if c.needsRegrouping() {
		errs = append(errs, o.AssignAll(ctx))
	}
	return errors.Join(errs...)
}

// renameLiveGroups retitles the live groups of renamed configurations.
// Targets are chosen before any update so chained renames do not cascade.
func (o *Orchestrator) renameLiveGroups(ctx context.Context, renames []rename, skip browser.GroupID) error {
	live, err := o.browser.Groups(ctx, browser.AllWindows)
	if err != nil {
		return fmt.Errorf("listing tab groups: %w", err)
	}

	type update struct {
		group browser.TabGroup
		to    types.GroupConfiguration
	}
	var plan []update
	for _, r := range renames {
		for _, g := range live {
			if g.ID != skip && g.Matches(r.from) {
				plan = append(plan, update{group: g, to: r.to})
			}
		}
	}

	var errs []error
	for _, u := range plan {
		if err := o.updateGroup(ctx, u.group, u.to.Title, u.to.Color); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ungroupDeleted releases the tabs of live groups whose configuration was
// deleted.
func (o *Orchestrator) ungroupDeleted(ctx context.Context, deleted []types.GroupConfiguration) error {
	live, err := o.browser.Groups(ctx, browser.AllWindows)
	if err != nil {
		return fmt.Errorf("listing tab groups: %w", err)
	}
	tabs, err := o.browser.Tabs(ctx, browser.AllWindows)
	if err != nil {
		return fmt.Errorf("listing tabs: %w", err)
	}

	var errs []error
	for _, g := range live {
		if !matchesAny(g, deleted) {
			continue
		}
		var ids []browser.TabID
		for _, tab := range tabs {
			if tab.GroupID == g.ID {
				ids = append(ids, tab.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		o.log.With("window", g.WindowID).Debug("ungrouping deleted group", "title", g.Title, "tabs", len(ids))
		err := Retry(ctx, o.retryDelay, browser.IsDragging, func(ctx context.Context) error {
			return o.browser.Ungroup(ctx, ids)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("ungrouping %q: %w", g.Title, err))
		}
	}
	return errors.Join(errs...)
}

// AssignAll assigns every window's tabs, windows concurrently.
func (o *Orchestrator) AssignAll(ctx context.Context) error {
	windows, err := o.browser.Windows(ctx)
	if err != nil {
		return fmt.Errorf("listing windows: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, w := range windows {
		eg.Go(func() error {
			return o.assignWindow(ctx, w.ID)
		})
	}
	return eg.Wait()
}

type bucket struct {
	group types.GroupConfiguration
	tabs  []browser.Tab
}

func (o *Orchestrator) assignWindow(ctx context.Context, window browser.WindowID) error {
	tabs, err := o.browser.Tabs(ctx, window)
	if err != nil {
		return fmt.Errorf("listing tabs of window %d: %w", window, err)
	}
	live, err := o.browser.Groups(ctx, window)
	if err != nil {
		return fmt.Errorf("listing groups of window %d: %w", window, err)
	}
	byID := make(map[browser.GroupID]browser.TabGroup, len(live))
	for _, g := range live {
		byID[g.ID] = g
	}

	var buckets []*bucket
	index := make(map[string]*bucket)
	for _, tab := range tabs {
		g, ok := o.GroupFor(tab)
		if !ok {
			continue
		}
		if current, ok := byID[tab.GroupID]; ok && current.Matches(g) {
			continue
		}
		b := index[g.ID]
		if b == nil {
			b = &bucket{group: g}
			index[g.ID] = b
			buckets = append(buckets, b)
		}
		b.tabs = append(b.tabs, tab)
	}

	for _, b := range buckets {
		if err := o.Assign(ctx, b.tabs, b.group); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.With("window", window, "group", b.group.ID).Warn("could not group tabs", "err", err)
		}
	}
	return nil
}

// Assign moves tabs into the live group for g in the first tab's window,
// creating it when missing. Concurrent creations of the same group in a
// window are merged through the tracker, and the whole operation is
// retried while tabs are being dragged.
func (o *Orchestrator) Assign(ctx context.Context, tabs []browser.Tab, g types.GroupConfiguration) error {
	if len(tabs) == 0 {
		return nil
	}
	ids := make([]browser.TabID, len(tabs))
	for i, tab := range tabs {
		ids[i] = tab.ID
	}
	log := o.log.With("group", g.ID, "tab", ids[0])

	var attempt *Attempt
	waitable := true
	err := Retry(ctx, o.retryDelay, browser.IsDragging, func(ctx context.Context) error {
		// The tabs may have been dragged to another window meanwhile.
		current, err := o.browser.Tab(ctx, ids[0])
		if err != nil {
			return err
		}
		window := current.WindowID
		if attempt != nil && attempt.window != window {
			attempt.Fail()
			attempt = nil
		}

		groupID, found, err := o.liveGroup(ctx, window, g)
		if err != nil {
			return err
		}
		if !found && attempt == nil {
			if waitable {
				if a, ok := o.tracker.Claim(window, g.ID); ok {
					attempt = a
					// A creation may have finished between the lookup and the claim.
					if groupID, found, err = o.liveGroup(ctx, window, g); err != nil {
						return err
					}
				} else {
					log.Debug("waiting for group creation in progress", "window", window)
					if groupID, found, err = o.tracker.Wait(ctx, window, g.ID); err != nil {
						return err
					}
				}
			}
			if !found && attempt == nil {
				attempt = o.tracker.Begin(window, g.ID)
			}
		}
		waitable = false

		if found {
			log.Debug("assigning to existing group", "window", window, "tabs", len(ids))
			if _, err := o.browser.GroupTabs(ctx, browser.GroupRequest{TabIDs: ids, GroupID: groupID}); err != nil {
				o.markDragging(ids, err)
				return err
			}
			if attempt != nil {
				attempt.Succeed(groupID)
			}
			o.clearDragging(ids)
			return nil
		}

		log.Debug("assigning to new group", "window", window, "tabs", len(ids))
		newID, err := o.browser.GroupTabs(ctx, browser.GroupRequest{TabIDs: ids, WindowID: window})
		if err != nil {
			o.markDragging(ids, err)
			return err
		}
		created, err := o.browser.Group(ctx, newID)
		if err != nil {
			return err
		}
		if err := o.updateGroup(ctx, created, g.Title, g.Color); err != nil {
			return err
		}
		attempt.Succeed(newID)
		o.clearDragging(ids)
		return nil
	})
	if attempt != nil {
		attempt.Fail()
	}
	if err != nil {
		return fmt.Errorf("assigning tabs to %q: %w", g.Title, err)
	}
	log.Debug("assignment successful")
	return nil
}

func (o *Orchestrator) liveGroup(ctx context.Context, window browser.WindowID, g types.GroupConfiguration) (browser.GroupID, bool, error) {
	live, err := o.browser.Groups(ctx, window)
	if err != nil {
		return 0, false, err
	}
	for _, tg := range live {
		if tg.Matches(g) {
			return tg.ID, true, nil
		}
	}
	return 0, false, nil
}

// updateGroup retitles a live group and records the update so its event
// is not mistaken for a manual edit.
func (o *Orchestrator) updateGroup(ctx context.Context, current browser.TabGroup, title string, color types.Color) error {
	if current.Title == title && current.Color == color {
		return nil
	}
	want := browser.TabGroup{ID: current.ID, WindowID: current.WindowID, Title: title, Color: color}
	o.expect(want)
	if _, err := o.browser.UpdateGroup(ctx, current.ID, browser.GroupUpdate{Title: &title, Color: &color}); err != nil {
		o.consumeExpected(want)
		return fmt.Errorf("updating group %d: %w", current.ID, err)
	}
	return nil
}

// HandleEvent reacts to one browser event. Tab assignments run in the
// background; Run waits for them before returning.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev browser.Event) {
	switch ev.Kind {
	case browser.WindowRemoved:
		o.tracker.Forget(ev.WindowID)
		o.log.With("window", ev.WindowID).Debug("window closed, forgetting group creations")

	case browser.GroupUpdated:
		if o.consumeExpected(ev.Group) {
			return
		}
		if err := o.syncManualEdit(ctx, ev.OldGroup, ev.Group); err != nil {
			o.log.With("window", ev.WindowID).Warn("syncing edited group failed", "err", err)
		}

	case browser.TabCreated, browser.TabUpdated:
		o.handleTab(ctx, ev)

	case browser.TabRemoved:
		o.clearDragging([]browser.TabID{ev.Tab.ID})
	}
}

func (o *Orchestrator) handleTab(ctx context.Context, ev browser.Event) {
	if o.isDragging(ev.Tab.ID) {
		return
	}
	if !ev.URLChanged && !ev.RemovedFromGroup() {
		return
	}

	id := ev.Tab.ID
	o.wg.Go(func() {
		// Use the current tab rather than the event's copy: the tab may
		// have moved or closed since.
		tab, err := o.browser.Tab(ctx, id)
		if err != nil {
			return
		}
		g, ok := o.GroupFor(tab)
		if !ok {
			return
		}
		o.log.With("tab", id, "group", g.ID).Debug("reassigning tab")
		if err := o.Assign(ctx, []browser.Tab{tab}, g); err != nil && ctx.Err() == nil {
			o.log.With("tab", id).Warn("could not group tab", "err", err)
		}
	})
}

// syncManualEdit writes a title or color edit made in the browser back
// into the configuration the group belonged to. A configuration already
// carrying the new identity is renamed with a conflict marker.
func (o *Orchestrator) syncManualEdit(ctx context.Context, before, after browser.TabGroup) error {
	if before.Title == after.Title && before.Color == after.Color {
		return nil
	}

	o.mu.Lock()
	groups := types.CloneGroups(o.groups)
	o.mu.Unlock()

	edited := indexMatching(groups, before)
	if edited < 0 {
		return nil
	}
	if conflicting := indexMatching(groups, after); conflicting >= 0 {
		groups[conflicting].Title = conflict.WithMarker(after.Title, false)
		o.log.With("group", groups[conflicting].ID).Info("renamed conflicting group", "title", groups[conflicting].Title)
	}
	groups[edited].Title = after.Title
	groups[edited].Color = after.Color
	o.log.With("group", groups[edited].ID, "window", after.WindowID).Info("synced manual group edit", "title", after.Title, "color", after.Color)

	if err := o.configs.Save(ctx, groups); err != nil {
		return fmt.Errorf("saving edited group: %w", err)
	}
	return o.applyGroups(ctx, groups, after.ID)
}

func (o *Orchestrator) expect(g browser.TabGroup) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expected[g.ID] = append(o.expected[g.ID], g)
}

func (o *Orchestrator) consumeExpected(g browser.TabGroup) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.expected[g.ID]
	for i, want := range pending {
		if want.Title == g.Title && want.Color == g.Color {
			pending = append(pending[:i], pending[i+1:]...)
			if len(pending) == 0 {
				delete(o.expected, g.ID)
			} else {
				o.expected[g.ID] = pending
			}
			return true
		}
	}
	return false
}

func (o *Orchestrator) markDragging(ids []browser.TabID, err error) {
	if !browser.IsDragging(err) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		o.dragging[id] = struct{}{}
	}
	o.log.Debug("tabs are being dragged, polling", "tabs", len(ids))
}

func (o *Orchestrator) clearDragging(ids []browser.TabID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		delete(o.dragging, id)
	}
}

func (o *Orchestrator) isDragging(id browser.TabID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.dragging[id]
	return ok
}

func indexMatching(groups []types.GroupConfiguration, g browser.TabGroup) int {
	for i, cfg := range groups {
		if g.Matches(cfg) {
			return i
		}
	}
	return -1
}

func matchesAny(g browser.TabGroup, groups []types.GroupConfiguration) bool {
	return indexMatching(groups, g) >= 0
}
