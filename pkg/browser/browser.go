// Package browser describes the tab and tab-group surface the orchestrator
// drives, and provides an in-memory implementation of it.
package browser

import (
	"context"
	"errors"

	"github.com/praetorian-inc/autogroup/pkg/types"
)

type (
	WindowID int
	TabID    int
	GroupID  int
)

// NoGroup is the GroupID of a tab that is not in a group.
const NoGroup GroupID = -1

// AllWindows selects every window in Tabs and Groups queries.
const AllWindows WindowID = 0

var (
	// ErrTabsBeingDragged is returned while the user drags a tab. The
	// operation should be retried after a short delay.
	ErrTabsBeingDragged = errors.New("tabs cannot be edited right now (user may be dragging a tab)")
	// ErrNotFound is returned for unknown windows, tabs and groups.
	ErrNotFound = errors.New("not found")
)

// IsDragging reports whether err is the transient dragging error.
func IsDragging(err error) bool {
	return errors.Is(err, ErrTabsBeingDragged)
}

// Window is a browser window.
type Window struct {
	ID WindowID `json:"id"`
}

// Tab is a browser tab.
type Tab struct {
	ID       TabID    `json:"id"`
	WindowID WindowID `json:"windowId"`
	GroupID  GroupID  `json:"groupId"`
	URL      string   `json:"url,omitempty"`
	Title    string   `json:"title,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`
}

// TabGroup is a live group of tabs inside one window.
type TabGroup struct {
	ID       GroupID     `json:"id"`
	WindowID WindowID    `json:"windowId"`
	Title    string      `json:"title"`
	Color    types.Color `json:"color"`
}

// Matches reports whether the live group carries the configuration's
// title and color.
func (g TabGroup) Matches(cfg types.GroupConfiguration) bool {
	return g.Title == cfg.Title && g.Color == cfg.Color
}

// GroupRequest groups tabs. A zero GroupID creates a new group in
// WindowID (or in the first tab's window when WindowID is zero).
type GroupRequest struct {
	TabIDs   []TabID
	GroupID  GroupID
	WindowID WindowID
}

// GroupUpdate changes a group's title or color. Nil fields are kept.
type GroupUpdate struct {
	Title *string
	Color *types.Color
}

// API is the browser surface used for grouping.
type API interface {
	Windows(ctx context.Context) ([]Window, error)
	Tabs(ctx context.Context, window WindowID) ([]Tab, error)
	Tab(ctx context.Context, id TabID) (Tab, error)
	Groups(ctx context.Context, window WindowID) ([]TabGroup, error)
	Group(ctx context.Context, id GroupID) (TabGroup, error)

	// GroupTabs adds tabs to an existing or new group and returns its ID.
	GroupTabs(ctx context.Context, req GroupRequest) (GroupID, error)
	UpdateGroup(ctx context.Context, id GroupID, update GroupUpdate) (TabGroup, error)
	Ungroup(ctx context.Context, tabs []TabID) error

	// Events delivers browser events until cancel is called.
	Events() (<-chan Event, func())
}
