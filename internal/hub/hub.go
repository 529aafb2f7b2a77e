// Package hub is an in-process implementation of the host application's shared
// event bus: listener registration keyed by (type, source), event dispatch,
// and versioned shared-state publication resolved relative to a specific event.
package hub

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/edgebridge/edgebridge/internal/event"
)

// Envelope constants for the state-change notification events the hub emits.
const (
	EventTypeHub      = "hub"
	SourceSharedState = "sharedState"
	KeyStateOwner     = "stateowner"
)

// Listener receives events matching the (type, source) pair it was registered
// under. Listeners run synchronously on the dispatching goroutine and must not
// block.
type Listener func(*event.Event)

type route struct {
	typ    string
	source string
}

// stateEntry is one published version of an owner's shared state.
type stateEntry struct {
	version uint64
	data    map[string]any
}

// Hub is safe for concurrent use by multiple producers.
type Hub struct {
	mu        sync.RWMutex
	listeners map[route][]Listener
	version   uint64 // monotonically increasing event counter
	states    map[string][]stateEntry
	xdmStates map[string][]stateEntry
	log       *slog.Logger
}

// New creates an empty hub.
func New(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		listeners: make(map[route][]Listener),
		states:    make(map[string][]stateEntry),
		xdmStates: make(map[string][]stateEntry),
		log:       log,
	}
}

// Register adds a listener for the exact (type, source) pair.
// Registration should happen at startup, before events flow.
func (h *Hub) Register(typ, source string, fn Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := route{typ: typ, source: source}
	h.listeners[k] = append(h.listeners[k], fn)
}

// Dispatch stamps the event with the current state version and fans it out to
// every listener registered for its (type, source) pair. Events with no
// matching listener are dropped.
func (h *Hub) Dispatch(ev *event.Event) {
	if ev == nil {
		return
	}
	h.mu.Lock()
	h.version++
	ev.StateVersion = h.version
	fns := h.listeners[route{typ: ev.Type, source: ev.Source}]
	targets := make([]Listener, len(fns))
	copy(targets, fns)
	h.mu.Unlock()

	if len(targets) == 0 {
		h.log.Debug("no listener for event", "type", ev.Type, "source", ev.Source)
		return
	}
	for _, fn := range targets {
		fn(ev)
	}
}

// SetSharedState publishes a new version of owner's standard shared state and
// emits a state-change notification. A nil scoping event publishes at version
// zero, making the state visible to every event regardless of arrival order.
func (h *Hub) SetSharedState(owner string, data map[string]any, ev *event.Event) {
	h.setState(h.states, owner, data, ev)
	h.notify(owner)
}

// SetXDMSharedState is SetSharedState for the XDM state variant.
func (h *Hub) SetXDMSharedState(owner string, data map[string]any, ev *event.Event) {
	h.setState(h.xdmStates, owner, data, ev)
	h.notify(owner)
}

// SharedState resolves owner's standard shared state as of ev. A nil event
// resolves the latest version. The second return is false when no version is
// visible yet (Unavailable); an empty-but-present map is Resolved.
func (h *Hub) SharedState(owner string, ev *event.Event) (map[string]any, bool) {
	return h.lookup(h.states, owner, ev)
}

// XDMSharedState is SharedState for the XDM state variant.
func (h *Hub) XDMSharedState(owner string, ev *event.Event) (map[string]any, bool) {
	return h.lookup(h.xdmStates, owner, ev)
}

func (h *Hub) setState(store map[string][]stateEntry, owner string, data map[string]any, ev *event.Event) {
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	var version uint64
	if ev != nil {
		version = ev.StateVersion
	}
	h.mu.Lock()
	entries := append(store[owner], stateEntry{version: version, data: cp})
	sort.Slice(entries, func(i, j int) bool { return entries[i].version < entries[j].version })
	store[owner] = entries
	h.mu.Unlock()
}

func (h *Hub) lookup(store map[string][]stateEntry, owner string, ev *event.Event) (map[string]any, bool) {
	h.mu.RLock()
	entries := store[owner]
	var found *stateEntry
	for i := range entries {
		if ev != nil && entries[i].version > ev.StateVersion {
			break
		}
		found = &entries[i]
	}
	h.mu.RUnlock()
	if found == nil {
		return nil, false
	}
	return found.data, true
}

// notify dispatches the hub/sharedState event that tells interested modules a
// named state changed.
func (h *Hub) notify(owner string) {
	h.Dispatch(event.New(
		"Shared state change",
		EventTypeHub,
		SourceSharedState,
		map[string]any{KeyStateOwner: owner},
	))
}
