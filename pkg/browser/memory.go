package browser

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/praetorian-inc/autogroup/pkg/types"
	"pkt.systems/pslog"
)

const eventDepth = 256

// TabSpec describes a tab to open in Memory.
type TabSpec struct {
	WindowID WindowID
	URL      string
	Title    string
	Pinned   bool
}

// Memory is an in-process browser. Besides API it offers the user-side
// actions (opening tabs, navigating, dragging, editing groups) tests and
// the CLI use to drive it.
type Memory struct {
	mu       sync.Mutex
	log      pslog.Logger
	nextID   int
	windows  map[WindowID]struct{}
	tabs     map[TabID]*Tab
	groups   map[GroupID]*TabGroup
	dragging map[TabID]struct{}
	subs     map[chan Event]struct{}
}

var _ API = (*Memory)(nil)

// NewMemory creates an empty browser.
func NewMemory(logger pslog.Logger) *Memory {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Memory{
		log:      logger,
		windows:  make(map[WindowID]struct{}),
		tabs:     make(map[TabID]*Tab),
		groups:   make(map[GroupID]*TabGroup),
		dragging: make(map[TabID]struct{}),
		subs:     make(map[chan Event]struct{}),
	}
}

func (m *Memory) id() int {
	m.nextID++
	return m.nextID
}

// OpenWindow creates a window.
func (m *Memory) OpenWindow() WindowID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := WindowID(m.id())
	m.windows[id] = struct{}{}
	m.emit(Event{Kind: WindowCreated, WindowID: id})
	return id
}

// CloseWindow closes a window with its tabs and groups.
func (m *Memory) CloseWindow(id WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.windows[id]; !ok {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	for _, tabID := range m.sortedTabs(id) {
		m.removeTab(tabID)
	}
	delete(m.windows, id)
	m.emit(Event{Kind: WindowRemoved, WindowID: id})
	return nil
}

// OpenTab opens a tab.
func (m *Memory) OpenTab(spec TabSpec) (Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.windows[spec.WindowID]; !ok {
		return Tab{}, fmt.Errorf("window %d: %w", spec.WindowID, ErrNotFound)
	}
	tab := &Tab{
		ID:       TabID(m.id()),
		WindowID: spec.WindowID,
		GroupID:  NoGroup,
		URL:      spec.URL,
		Title:    spec.Title,
		Pinned:   spec.Pinned,
	}
	m.tabs[tab.ID] = tab
	m.emit(Event{Kind: TabCreated, WindowID: tab.WindowID, Tab: *tab, URLChanged: tab.URL != ""})
	return *tab, nil
}

// Navigate changes a tab's URL.
func (m *Memory) Navigate(id TabID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[id]
	if !ok {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	if tab.URL == url {
		return nil
	}
	old := *tab
	tab.URL = url
	m.emit(Event{Kind: TabUpdated, WindowID: tab.WindowID, Tab: *tab, OldTab: old, URLChanged: true})
	return nil
}

// Pin pins or unpins a tab.
func (m *Memory) Pin(id TabID, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[id]
	if !ok {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	old := *tab
	tab.Pinned = pinned
	m.emit(Event{Kind: TabUpdated, WindowID: tab.WindowID, Tab: *tab, OldTab: old})
	return nil
}

// MoveTab moves a tab to another window, leaving its group.
func (m *Memory) MoveTab(id TabID, window WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[id]
	if !ok {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	if _, ok := m.windows[window]; !ok {
		return fmt.Errorf("window %d: %w", window, ErrNotFound)
	}
	old := *tab
	tab.WindowID = window
	tab.GroupID = NoGroup
	m.emit(Event{Kind: TabMoved, WindowID: window, Tab: *tab, OldTab: old})
	m.pruneGroup(old.GroupID)
	return nil
}

// CloseTab closes a tab.
func (m *Memory) CloseTab(id TabID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[id]; !ok {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	m.removeTab(id)
	return nil
}

// EditGroup changes a group's title and color the way a user would.
func (m *Memory) EditGroup(id GroupID, title string, color types.Color) error {
	_, err := m.UpdateGroup(context.Background(), id, GroupUpdate{Title: &title, Color: &color})
	return err
}

// BeginDrag marks tabs as being dragged. Grouping them fails with
// ErrTabsBeingDragged until EndDrag.
func (m *Memory) BeginDrag(ids ...TabID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.dragging[id] = struct{}{}
	}
}

// EndDrag releases dragged tabs.
func (m *Memory) EndDrag(ids ...TabID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.dragging, id)
	}
}

// Windows returns all windows ordered by ID.
func (m *Memory) Windows(ctx context.Context) ([]Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Window, 0, len(m.windows))
	for id := range m.windows {
		out = append(out, Window{ID: id})
	}
	slices.SortFunc(out, func(a, b Window) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

// Tabs returns the tabs of window, or of every window for AllWindows.
func (m *Memory) Tabs(ctx context.Context, window WindowID) ([]Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sortedTabs(window)
	out := make([]Tab, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.tabs[id])
	}
	return out, nil
}

// Tab returns one tab.
func (m *Memory) Tab(ctx context.Context, id TabID) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[id]
	if !ok {
		return Tab{}, fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return *tab, nil
}

// Groups returns the groups of window, or of every window for AllWindows.
func (m *Memory) Groups(ctx context.Context, window WindowID) ([]TabGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TabGroup
	for _, g := range m.groups {
		if window == AllWindows || g.WindowID == window {
			out = append(out, *g)
		}
	}
	slices.SortFunc(out, func(a, b TabGroup) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

// Group returns one group.
func (m *Memory) Group(ctx context.Context, id GroupID) (TabGroup, error) {
	if err := ctx.Err(); err != nil {
		return TabGroup{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return TabGroup{}, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	return *g, nil
}

// GroupTabs adds tabs to a group, creating it when req.GroupID is zero.
// Tabs are moved into the group's window.
func (m *Memory) GroupTabs(ctx context.Context, req GroupRequest) (GroupID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(req.TabIDs) == 0 {
		return 0, fmt.Errorf("no tabs to group")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(req.TabIDs); err != nil {
		return 0, err
	}

	var target *TabGroup
	if req.GroupID != 0 {
		g, ok := m.groups[req.GroupID]
		if !ok {
			return 0, fmt.Errorf("group %d: %w", req.GroupID, ErrNotFound)
		}
		target = g
	} else {
		window := req.WindowID
		if window == 0 {
			window = m.tabs[req.TabIDs[0]].WindowID
		}
		if _, ok := m.windows[window]; !ok {
			return 0, fmt.Errorf("window %d: %w", window, ErrNotFound)
		}
		target = &TabGroup{ID: GroupID(m.id()), WindowID: window, Color: types.ColorGrey}
		m.groups[target.ID] = target
		m.emit(Event{Kind: GroupCreated, WindowID: window, Group: *target})
	}

	left := make(map[GroupID]struct{})
	for _, id := range req.TabIDs {
		tab := m.tabs[id]
		if tab.GroupID == target.ID {
			continue
		}
		old := *tab
		tab.GroupID = target.ID
		tab.WindowID = target.WindowID
		left[old.GroupID] = struct{}{}
		m.emit(Event{Kind: TabUpdated, WindowID: tab.WindowID, Tab: *tab, OldTab: old, GroupChanged: true})
	}
	for id := range left {
		m.pruneGroup(id)
	}
	return target.ID, nil
}

// UpdateGroup changes a group's title or color.
func (m *Memory) UpdateGroup(ctx context.Context, id GroupID, update GroupUpdate) (TabGroup, error) {
	if err := ctx.Err(); err != nil {
		return TabGroup{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return TabGroup{}, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	old := *g
	if update.Title != nil {
		g.Title = *update.Title
	}
	if update.Color != nil {
		g.Color = *update.Color
	}
	if *g != old {
		m.emit(Event{Kind: GroupUpdated, WindowID: g.WindowID, Group: *g, OldGroup: old})
	}
	return *g, nil
}

// Ungroup takes tabs out of their groups.
func (m *Memory) Ungroup(ctx context.Context, ids []TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(ids); err != nil {
		return err
	}
	left := make(map[GroupID]struct{})
	for _, id := range ids {
		tab := m.tabs[id]
		if tab.GroupID == NoGroup {
			continue
		}
		old := *tab
		tab.GroupID = NoGroup
		left[old.GroupID] = struct{}{}
		m.emit(Event{Kind: TabUpdated, WindowID: tab.WindowID, Tab: *tab, OldTab: old, GroupChanged: true})
	}
	for id := range left {
		m.pruneGroup(id)
	}
	return nil
}

// Events delivers every event emitted after the call.
func (m *Memory) Events() (<-chan Event, func()) {
	ch := make(chan Event, eventDepth)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, ch)
			close(ch)
		})
	}
}

func (m *Memory) editable(ids []TabID) error {
	for _, id := range ids {
		if _, ok := m.tabs[id]; !ok {
			return fmt.Errorf("tab %d: %w", id, ErrNotFound)
		}
		if _, ok := m.dragging[id]; ok {
			return ErrTabsBeingDragged
		}
	}
	return nil
}

func (m *Memory) sortedTabs(window WindowID) []TabID {
	var ids []TabID
	for id, tab := range m.tabs {
		if window == AllWindows || tab.WindowID == window {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (m *Memory) removeTab(id TabID) {
	tab := m.tabs[id]
	delete(m.tabs, id)
	delete(m.dragging, id)
	m.emit(Event{Kind: TabRemoved, WindowID: tab.WindowID, Tab: *tab})
	m.pruneGroup(tab.GroupID)
}

// pruneGroup removes a group that no longer holds any tab.
func (m *Memory) pruneGroup(id GroupID) {
	g, ok := m.groups[id]
	if !ok {
		return
	}
	for _, tab := range m.tabs {
		if tab.GroupID == id {
			return
		}
	}
	delete(m.groups, id)
	m.emit(Event{Kind: GroupRemoved, WindowID: g.WindowID, Group: *g})
}

// emit must be called with m.mu held.
func (m *Memory) emit(ev Event) {
	for sub := range m.subs {
		select {
		case sub <- ev:
		default:
			m.log.With("kind", ev.Kind).Warn("browser event dropped")
		}
	}
}
