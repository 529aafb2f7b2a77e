package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/hub"
	"github.com/edgebridge/edgebridge/internal/messaging"
	"github.com/edgebridge/edgebridge/internal/router"
)

type edgeCapture struct {
	mu     sync.Mutex
	events []*event.Event
}

func (c *edgeCapture) listener(ev *event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *edgeCapture) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestHandler(t *testing.T) (http.Handler, *messaging.Extension, *edgeCapture) {
	t.Helper()

	bus := hub.New(nil)
	ext := messaging.New(bus, "com.example.app", nil)
	t.Cleanup(ext.Close)
	ext.Attach(bus)

	capture := &edgeCapture{}
	bus.Register(messaging.EventTypeEdge, messaging.SourceRequestContent, capture.listener)

	bus.SetSharedState(messaging.StateOwnerConfiguration,
		map[string]any{messaging.KeyEventDataset: "ds1"}, nil)
	bus.SetXDMSharedState(messaging.StateOwnerEdgeIdentity, map[string]any{
		"identityMap": map[string]any{
			"ECID": []any{map[string]any{"id": "ecid1"}},
		},
	}, nil)

	rtr := router.New(nil, nil, nil, nil)
	return New(bus, ext, rtr, 10), ext, capture
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPushTokenEndpoint(t *testing.T) {
	h, ext, capture := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/v1/identity/push-token", `{"token":"tok"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	ext.Flush()
	if got := capture.len(); got != 1 {
		t.Errorf("captured %d edge events, want 1", got)
	}
}

func TestPushTokenEndpointRejectsBadInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	if rec := do(t, h, http.MethodPost, "/v1/identity/push-token", `{"token":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty token: status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/identity/push-token", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", rec.Code)
	}
}

func TestTrackEndpoint(t *testing.T) {
	h, ext, capture := newTestHandler(t)

	body := `{"event_type":"pushTracking.applicationOpened","message_id":"m1","application_opened":true}`
	rec := do(t, h, http.MethodPost, "/v1/track", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	ext.Flush()
	if got := capture.len(); got != 1 {
		t.Errorf("captured %d edge events, want 1", got)
	}

	if rec := do(t, h, http.MethodPost, "/v1/track", `{"message_id":"m1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing event_type: status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/track", `{"event_type":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing message_id: status = %d, want 400", rec.Code)
	}
}

func TestInteractionEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/v1/interaction", `{"url":"adbinapp://dismiss"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Consumed bool     `json:"consumed"`
		Commands []string `json:"commands"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Consumed {
		t.Error("consumed = false, want true")
	}
	if len(resp.Commands) != 1 || resp.Commands[0] != "dismiss" {
		t.Errorf("commands = %v, want [dismiss]", resp.Commands)
	}

	rec = do(t, h, http.MethodPost, "/v1/interaction", `{"url":"https://example.com"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Consumed {
		t.Error("foreign scheme reported consumed")
	}
}

func TestHealthAndReadiness(t *testing.T) {
	h, _, _ := newTestHandler(t)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}
