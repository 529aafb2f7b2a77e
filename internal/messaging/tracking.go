package messaging

import (
	"encoding/json"

	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/metrics"
)

// Push tracking payload. Field order is the wire contract; do not reorder.
type trackingDoc struct {
	XDM  trackingXDM  `json:"xdm"`
	Meta trackingMeta `json:"meta"`
}

type trackingXDM struct {
	PushNotificationTracking pushNotificationTracking `json:"pushNotificationTracking"`
	Application              applicationLaunches      `json:"application"`
	EventType                string                   `json:"eventType"`
	Experience               map[string]any           `json:"_experience,omitempty"`
}

type pushNotificationTracking struct {
	CustomAction          *customAction `json:"customAction,omitempty"`
	PushProviderMessageID string        `json:"pushProviderMessageID"`
	PushProvider          string        `json:"pushProvider"`
}

type customAction struct {
	ActionID string `json:"actionID"`
}

type applicationLaunches struct {
	Launches launchesValue `json:"launches"`
}

type launchesValue struct {
	Value int `json:"value"`
}

type trackingMeta struct {
	Collect collectMeta `json:"collect"`
}

type collectMeta struct {
	DatasetID string `json:"datasetId"`
}

// handleTrackingInfo turns a notification-interaction event into an
// experience event on the edge. Without an event type, a message ID, and a
// configured experience event dataset this is a silent no-op.
func (m *Extension) handleTrackingInfo(ev *event.Event, st State) {
	data := ev.DataMap()
	if data == nil {
		m.log.Debug("tracking event has no payload", "event", ev.ID)
		return
	}
	eventType, _ := data[KeyTrackEventType].(string)
	if eventType == "" {
		m.log.Debug("tracking event type missing", "event", ev.ID)
		return
	}
	messageID, _ := data[KeyTrackMessageID].(string)
	if messageID == "" {
		m.log.Debug("tracking message ID missing", "event", ev.ID)
		return
	}
	if st.ExperienceEventDatasetID == "" {
		m.log.Debug("no experience event dataset configured, tracking suppressed", "event", ev.ID)
		return
	}

	launches := 0
	if opened, _ := data[KeyTrackApplicationOpened].(bool); opened {
		launches = 1
	}

	doc := trackingDoc{
		XDM: trackingXDM{
			PushNotificationTracking: pushNotificationTracking{
				PushProviderMessageID: messageID,
				PushProvider:          pushPlatform,
			},
			Application: applicationLaunches{Launches: launchesValue{Value: launches}},
			EventType:   eventType,
		},
		Meta: trackingMeta{Collect: collectMeta{DatasetID: st.ExperienceEventDatasetID}},
	}
	if actionID, _ := data[KeyTrackActionID].(string); actionID != "" {
		doc.XDM.PushNotificationTracking.CustomAction = &customAction{ActionID: actionID}
	}
	if raw, _ := data[KeyTrackXDM].(string); raw != "" {
		doc.XDM.Experience = m.experienceFromMixins(raw)
	}

	m.host.Dispatch(event.New(pushTrackingEventName, EventTypeEdge, SourceRequestContent, doc))
	metrics.OutboundEvents.WithLabelValues("push_tracking").Inc()
}

// experienceFromMixins promotes the "_experience" object out of an embedded
// mixins document and enriches its customer journey block with the push
// channel context. A document that fails to parse is tolerated: tracking
// proceeds without the merged block.
func (m *Extension) experienceFromMixins(raw string) map[string]any {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		m.log.Debug("embedded mixins unparseable, ignoring", "err", err)
		return nil
	}
	mixins, ok := wrapper["mixins"].(map[string]any)
	if !ok {
		return nil
	}
	experience, ok := mixins["_experience"].(map[string]any)
	if !ok {
		return nil
	}
	if cjm, ok := experience["customerJourneyManagement"].(map[string]any); ok {
		cjm["pushChannelContext"] = map[string]any{"platform": pushPlatform}
		cjm["messageProfile"] = map[string]any{
			"channel": map[string]any{"_id": pushChannelID},
		}
	}
	return experience
}
