package browser

// EventKind identifies a browser event.
type EventKind string

const (
	WindowCreated EventKind = "window.created"
	WindowRemoved EventKind = "window.removed"

	TabCreated EventKind = "tab.created"
	TabUpdated EventKind = "tab.updated"
	TabRemoved EventKind = "tab.removed"
	TabMoved   EventKind = "tab.moved"

	GroupCreated EventKind = "group.created"
	GroupUpdated EventKind = "group.updated"
	GroupRemoved EventKind = "group.removed"
)

// Event is a change in browser state. Tab fields are set for tab events,
// Group fields for group events. Old values describe the state before an
// update or move.
type Event struct {
	Kind     EventKind
	WindowID WindowID

	Tab    Tab
	OldTab Tab

	// URLChanged and GroupChanged describe a TabUpdated event.
	URLChanged   bool
	GroupChanged bool

	Group    TabGroup
	OldGroup TabGroup
}

// RemovedFromGroup reports whether a tab update took the tab out of its group.
func (e Event) RemovedFromGroup() bool {
	return e.Kind == TabUpdated && e.GroupChanged && e.Tab.GroupID == NoGroup
}
