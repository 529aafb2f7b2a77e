package messaging

// Event types and sources this module listens for or emits.
const (
	EventTypeIdentity    = "identity"
	EventTypeMessaging   = "messaging"
	EventTypeEdge        = "edge"
	EventTypeRulesEngine = "rulesEngine"

	SourceRequestContent  = "requestContent"
	SourceResponseContent = "responseContent"
	SourcePersonalization = "personalization:decisions"
)

// Shared-state owners the drain gate depends on, and this module's own name.
const (
	StateOwnerConfiguration = "configuration"
	StateOwnerEdgeIdentity  = "edgeIdentity"
	StateOwnerMessaging     = "messaging"
)

// Payload keys.
const (
	KeyPushIdentifier = "pushidentifier"
	KeyECID           = "ecid"
	KeyEventDataset   = "messaging.eventDataset"

	KeyTrackEventType         = "eventType"
	KeyTrackMessageID         = "messageId"
	KeyTrackActionID          = "actionId"
	KeyTrackApplicationOpened = "applicationOpened"
	KeyTrackXDM               = "xdm"
)

// Outbound event names.
const (
	pushProfileEventName  = "Push notification profile edge event"
	pushTrackingEventName = "Push tracking edge event"
)

// Values fixed by the outbound payload contracts.
const (
	pushPlatform      = "fcm"
	ecidNamespaceCode = "ECID"
	pushChannelID     = "https://ns.adobe.com/xdm/channels/push"
)
