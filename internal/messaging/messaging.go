// Package messaging is the event-ingestion and dispatch core of the mobile
// messaging module: a gated FIFO event queue drained on a single-consumer
// executor, and the builders that turn eligible inbound events into outbound
// edge events.
package messaging

import (
	"log/slog"
	"sync"

	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/hub"
	"github.com/edgebridge/edgebridge/internal/metrics"
)

// Host is the slice of the event bus the extension depends on. Lookups and
// publishes are synchronous and assumed bounded; any timeout policy belongs to
// the host, not here.
type Host interface {
	SharedState(owner string, ev *event.Event) (map[string]any, bool)
	XDMSharedState(owner string, ev *event.Event) (map[string]any, bool)
	Dispatch(ev *event.Event)
	SetSharedState(owner string, data map[string]any, ev *event.Event)
}

// Extension holds the queue, the gate, and the dispatch table.
type Extension struct {
	host  Host
	appID string
	log   *slog.Logger

	routes *routeRegistry
	exec   *serialExecutor

	mu    sync.Mutex
	queue []*event.Event
	state State

	// Optional hooks for the collaborator subsystems fed through the same
	// gate (offer processing, in-app message display). Set before Attach.
	OffersHandler func(*event.Event)
	RulesHandler  func(*event.Event)
}

// New creates an Extension bound to host. appID is the host application's
// bundle/package identifier carried in push profile payloads.
func New(host Host, appID string, log *slog.Logger) *Extension {
	if log == nil {
		log = slog.Default()
	}
	m := &Extension{
		host:   host,
		appID:  appID,
		log:    log,
		routes: newRouteRegistry(),
		exec:   newSerialExecutor(),
	}
	m.routes.Register(EventTypeIdentity, SourceRequestContent, m.handlePushToken)
	m.routes.Register(EventTypeMessaging, SourceRequestContent, m.handleTrackingInfo)
	m.routes.Register(EventTypeEdge, SourcePersonalization, m.handleOffers)
	m.routes.Register(EventTypeRulesEngine, SourceResponseContent, m.handleRulesResponse)
	return m
}

// Attach registers the extension's listeners with the bus, one per row of the
// dispatch table plus the shared-state notification listener.
func (m *Extension) Attach(bus *hub.Hub) {
	bus.Register(EventTypeIdentity, SourceRequestContent, m.Enqueue)
	bus.Register(EventTypeMessaging, SourceRequestContent, m.Enqueue)
	bus.Register(EventTypeEdge, SourcePersonalization, m.Enqueue)
	bus.Register(EventTypeRulesEngine, SourceResponseContent, m.Enqueue)
	bus.Register(hub.EventTypeHub, hub.SourceSharedState, m.handleSharedStateEvent)
}

// Enqueue appends an inbound event and schedules a drain attempt. A nil event
// is a no-op, never an error.
func (m *Extension) Enqueue(ev *event.Event) {
	if ev == nil {
		m.log.Debug("ignoring nil event")
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, ev)
	depth := len(m.queue)
	m.mu.Unlock()

	metrics.EventsEnqueued.Inc()
	metrics.QueueDepth.Set(float64(depth))
	m.exec.Do(m.processQueue)
}

// OnSharedStateChanged schedules a drain attempt when the identity state
// owner's publication changes and events are waiting on it. Changes to other
// owners never re-trigger a scan.
func (m *Extension) OnSharedStateChanged(owner string) {
	if owner != StateOwnerEdgeIdentity {
		return
	}
	m.mu.Lock()
	pending := len(m.queue) > 0
	m.mu.Unlock()
	if pending {
		m.exec.Do(m.processQueue)
	}
}

// handleSharedStateEvent unwraps a hub notification into OnSharedStateChanged.
func (m *Extension) handleSharedStateEvent(ev *event.Event) {
	owner, _ := ev.DataMap()[hub.KeyStateOwner].(string)
	if owner == "" {
		return
	}
	m.OnSharedStateChanged(owner)
}

// QueueLen returns how many events are currently gated.
func (m *Extension) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush blocks until every drain attempt scheduled so far has run.
func (m *Extension) Flush() {
	done := make(chan struct{})
	if !m.exec.Do(func() { close(done) }) {
		return
	}
	<-done
}

// Close stops the drain executor after running any pending attempts.
func (m *Extension) Close() {
	m.exec.Close()
}

// processQueue is the drain algorithm. It only ever runs on the serial
// executor. For each leading event a fresh snapshot is fetched, scoped to
// that event; the scan halts at the first event whose gate does not resolve,
// preserving arrival order for the next attempt.
func (m *Extension) processQueue() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		head := m.queue[0]
		m.mu.Unlock()

		configState, ok := m.host.SharedState(StateOwnerConfiguration, head)
		if !ok {
			metrics.DrainsBlocked.WithLabelValues(StateOwnerConfiguration).Inc()
			m.log.Debug("drain paused, configuration state unavailable", "event", head.ID)
			return
		}
		identityState, ok := m.host.XDMSharedState(StateOwnerEdgeIdentity, head)
		if !ok {
			metrics.DrainsBlocked.WithLabelValues(StateOwnerEdgeIdentity).Inc()
			m.log.Debug("drain paused, identity state unavailable", "event", head.ID)
			return
		}

		m.mu.Lock()
		m.state.update(configState, identityState)
		st := m.state
		m.queue = m.queue[1:]
		depth := len(m.queue)
		m.mu.Unlock()
		metrics.QueueDepth.Set(float64(depth))

		if fn, found := m.routes.Get(head.Type, head.Source); found {
			fn(head, st)
			metrics.EventsDispatched.Inc()
		} else {
			m.log.Debug("dropping unroutable event", "type", head.Type, "source", head.Source)
			metrics.EventsDropped.Inc()
		}
	}
}

func (m *Extension) handleOffers(ev *event.Event, _ State) {
	if m.OffersHandler != nil {
		m.OffersHandler(ev)
		return
	}
	m.log.Debug("no offers handler attached", "event", ev.ID)
}

func (m *Extension) handleRulesResponse(ev *event.Event, _ State) {
	if m.RulesHandler != nil {
		m.RulesHandler(ev)
		return
	}
	m.log.Debug("no rules handler attached", "event", ev.ID)
}
