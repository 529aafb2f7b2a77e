package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgebridge_events_enqueued_total",
		Help: "Total number of inbound events placed on the gated queue.",
	})

	EventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgebridge_events_dispatched_total",
		Help: "Total number of events released by the gate and dispatched to a handler.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgebridge_events_dropped_total",
		Help: "Total number of dequeued events with no matching dispatch route.",
	})

	DrainsBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgebridge_drains_blocked_total",
		Help: "Total number of drain attempts halted by an unavailable shared state, labelled by owner.",
	}, []string{"owner"})

	OutboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgebridge_outbound_events_total",
		Help: "Total number of outbound edge events published, labelled by builder.",
	}, []string{"builder"})

	InteractionCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgebridge_interaction_commands_total",
		Help: "Total number of interaction commands applied, labelled by kind.",
	}, []string{"kind"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgebridge_queue_depth",
		Help: "Number of events currently waiting on the gate.",
	})
)
