package messaging

import (
	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/metrics"
)

// Push profile payload. Field order is the wire contract; do not reorder.
type pushProfileDoc struct {
	Data pushProfileData `json:"data"`
}

type pushProfileData struct {
	PushNotificationDetails []pushNotificationDetail `json:"pushNotificationDetails"`
}

type pushNotificationDetail struct {
	Denylisted bool         `json:"denylisted"`
	Identity   pushIdentity `json:"identity"`
	AppID      string       `json:"appID"`
	Platform   string       `json:"platform"`
	Token      string       `json:"token"`
}

type pushIdentity struct {
	Namespace identityNamespace `json:"namespace"`
	ID        string            `json:"id"`
}

type identityNamespace struct {
	Code string `json:"code"`
}

// handlePushToken turns a push-token registration event into a profile update
// on the edge, and republishes the token as this module's own shared state.
// Missing token or ECID makes this a silent no-op.
func (m *Extension) handlePushToken(ev *event.Event, st State) {
	data := ev.DataMap()
	if data == nil {
		m.log.Debug("push token event has no payload", "event", ev.ID)
		return
	}
	token, _ := data[KeyPushIdentifier].(string)
	if token == "" {
		m.log.Debug("push token missing or empty", "event", ev.ID)
		return
	}
	if st.ECID == "" {
		m.log.Debug("no ECID available, skipping push profile update", "event", ev.ID)
		return
	}

	doc := pushProfileDoc{
		Data: pushProfileData{
			PushNotificationDetails: []pushNotificationDetail{{
				Denylisted: false,
				Identity: pushIdentity{
					Namespace: identityNamespace{Code: ecidNamespaceCode},
					ID:        st.ECID,
				},
				AppID:    m.appID,
				Platform: pushPlatform,
				Token:    token,
			}},
		},
	}

	m.host.Dispatch(event.New(pushProfileEventName, EventTypeEdge, SourceRequestContent, doc))
	metrics.OutboundEvents.WithLabelValues("push_profile").Inc()

	// Expose the current push registration to other modules.
	m.host.SetSharedState(StateOwnerMessaging, map[string]any{
		KeyPushIdentifier: token,
		KeyECID:           st.ECID,
	}, ev)
}
