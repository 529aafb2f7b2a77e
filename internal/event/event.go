package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the canonical envelope for everything that crosses the hub:
// inbound domain events, shared-state notifications, and outbound edge events.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`   // "identity", "messaging", "hub", ...
	Source    string    `json:"source"` // "requestContent", "sharedState", ...
	Timestamp time.Time `json:"timestamp"`

	// Data is the event payload. Inbound producers attach a map[string]any;
	// outbound builders attach a typed document whose JSON encoding is the
	// wire contract. Treat as immutable once the event is constructed.
	Data any `json:"data"`

	// StateVersion is stamped by the hub at dispatch time and scopes
	// shared-state lookups to "state as of this event".
	StateVersion uint64 `json:"-"`
}

// New constructs an event with a fresh ID and the current timestamp.
func New(name, typ, source string, data any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      typ,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// DataMap returns the payload as a key→value map, or nil when the event has
// no payload or carries a typed document instead.
func (e *Event) DataMap() map[string]any {
	if e == nil || e.Data == nil {
		return nil
	}
	m, _ := e.Data.(map[string]any)
	return m
}
