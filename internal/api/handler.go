package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/hub"
	"github.com/edgebridge/edgebridge/internal/messaging"
	"github.com/edgebridge/edgebridge/internal/router"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	bus            *hub.Hub
	ext            *messaging.Extension
	rtr            *router.Router
	queueWarnDepth int
	mux            *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(bus *hub.Hub, ext *messaging.Extension, rtr *router.Router, queueWarnDepth int) http.Handler {
	h := &Handler{bus: bus, ext: ext, rtr: rtr, queueWarnDepth: queueWarnDepth, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/identity/push-token", h.pushToken)
	h.mux.HandleFunc("POST /v1/track", h.track)
	h.mux.HandleFunc("POST /v1/interaction", h.interaction)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// POST /v1/identity/push-token — registers a push token with the profile.
func (h *Handler) pushToken(w http.ResponseWriter, r *http.Request) {
	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	ev := event.New("Push token registration", messaging.EventTypeIdentity, messaging.SourceRequestContent,
		map[string]any{messaging.KeyPushIdentifier: req.Token})
	h.bus.Dispatch(ev)

	writeJSON(w, http.StatusAccepted, map[string]any{"event_id": ev.ID, "queued": true})
}

type trackRequest struct {
	EventType         string `json:"event_type"`
	MessageID         string `json:"message_id"`
	ActionID          string `json:"action_id"`
	ApplicationOpened bool   `json:"application_opened"`
	XDM               string `json:"xdm"`
}

// POST /v1/track — reports a push notification interaction.
func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.EventType == "" {
		writeError(w, http.StatusBadRequest, "event_type is required")
		return
	}
	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "message_id is required")
		return
	}

	data := map[string]any{
		messaging.KeyTrackEventType:         req.EventType,
		messaging.KeyTrackMessageID:         req.MessageID,
		messaging.KeyTrackApplicationOpened: req.ApplicationOpened,
	}
	if req.ActionID != "" {
		data[messaging.KeyTrackActionID] = req.ActionID
	}
	if req.XDM != "" {
		data[messaging.KeyTrackXDM] = req.XDM
	}

	ev := event.New("Push tracking", messaging.EventTypeMessaging, messaging.SourceRequestContent, data)
	h.bus.Dispatch(ev)

	writeJSON(w, http.StatusAccepted, map[string]any{"event_id": ev.ID, "queued": true})
}

type interactionRequest struct {
	URL string `json:"url"`
}

// POST /v1/interaction — routes a tap URI from a rendered message.
func (h *Handler) interaction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	consumed, cmds := h.rtr.Handle(req.URL)
	kinds := make([]string, 0, len(cmds))
	for _, c := range cmds {
		kinds = append(kinds, string(c.Kind))
	}

	writeJSON(w, http.StatusOK, map[string]any{"consumed": consumed, "commands": kinds})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 when the gated queue is deeper than the warn threshold.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	depth := h.ext.QueueLen()
	if h.queueWarnDepth > 0 && depth > h.queueWarnDepth {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":      "gated",
			"queue_depth": depth,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"queue_depth": depth,
	})
}
