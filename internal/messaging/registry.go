package messaging

import (
	"fmt"
	"sync"

	"github.com/edgebridge/edgebridge/internal/event"
)

// routeKey identifies one row of the dispatch table.
type routeKey struct {
	Type   string
	Source string
}

// handlerFunc processes one dequeued event with the state snapshot in effect
// when its gate resolved.
type handlerFunc func(ev *event.Event, st State)

// routeRegistry maps (type, source) pairs to their handlers.
// It is safe for concurrent reads; Register should only be called at startup.
type routeRegistry struct {
	mu       sync.RWMutex
	handlers map[routeKey]handlerFunc
}

func newRouteRegistry() *routeRegistry {
	return &routeRegistry{handlers: make(map[routeKey]handlerFunc)}
}

// Register adds a handler. Panics on duplicate route to surface
// misconfiguration early.
func (r *routeRegistry) Register(typ, source string, fn handlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := routeKey{Type: typ, Source: source}
	if _, exists := r.handlers[k]; exists {
		panic(fmt.Sprintf("route registry: duplicate route %s/%s", typ, source))
	}
	r.handlers[k] = fn
}

// Get returns the handler for the given route, if any.
func (r *routeRegistry) Get(typ, source string) (handlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[routeKey{Type: typ, Source: source}]
	return fn, ok
}
