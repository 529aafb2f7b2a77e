// Package router decides how a tap inside a rendered in-app message, encoded
// as a custom-scheme URI, should be handled: interaction tracking, deep links,
// embedded javascript, or dismissal. Each call is independent; the router
// keeps no state between invocations.
package router

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/edgebridge/edgebridge/internal/metrics"
)

// Scheme is the reserved URI scheme this module owns. URIs with any other
// scheme are "not ours" and left for the caller to load as ordinary content.
const Scheme = "adbinapp"

const (
	hostDismiss = "dismiss"
	hostCancel  = "cancel"

	paramInteraction = "interaction"
	paramLink        = "link"
	paramJS          = "js"

	jsQueryMarker  = "js="
	deeplinkMarker = "deeplink"
)

// CommandKind tags the variants of Command.
type CommandKind string

const (
	CommandTrack     CommandKind = "track"
	CommandOpenLink  CommandKind = "openLink"
	CommandRunScript CommandKind = "runScript"
	CommandDismiss   CommandKind = "dismiss"
)

// Command is one action derived from a tap URI. A single URI can produce
// zero, one, or several commands; link, script, and dismiss are independent.
type Command struct {
	Kind         CommandKind
	Value        string // interaction ID, link URL, or script code
	Deeplink     bool   // OpenLink only: route through the native link opener
	ByUserAction bool   // Dismiss only
}

// UIService opens URLs on behalf of the host application.
type UIService interface {
	OpenURL(url string) bool
	ShowURL(url string) bool
}

// MessageSurface is the rendered message the commands act on.
type MessageSurface interface {
	EvaluateScript(code string)
	Dismiss(byUserAction bool)
}

// Tracker records message interactions.
type Tracker interface {
	TrackInteraction(interactionID string)
}

// Router applies decided commands against the host collaborators. Collaborator
// failures are logged and skipped, never propagated.
type Router struct {
	tracker Tracker
	ui      UIService
	surface MessageSurface
	log     *slog.Logger
}

// New creates a Router. Any collaborator may be nil; commands needing it are
// then logged and dropped.
func New(tracker Tracker, ui UIService, surface MessageSurface, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{tracker: tracker, ui: ui, surface: surface, log: log}
}

// HandleURL decides and applies the commands for one tap URI. The return
// value tells the caller whether the URI was consumed; false means "not our
// scheme, load it as ordinary content".
func (r *Router) HandleURL(raw string) bool {
	consumed, _ := r.Handle(raw)
	return consumed
}

// Handle is HandleURL returning the applied commands as well.
func (r *Router) Handle(raw string) (bool, []Command) {
	consumed, cmds := r.Decide(raw)
	for _, c := range cmds {
		r.apply(c)
		metrics.InteractionCommands.WithLabelValues(string(c.Kind)).Inc()
	}
	return consumed, cmds
}

// Decide runs the decision sequence over one URI without side effects beyond
// logging. It returns whether the URI is consumed and the commands to apply.
func (r *Router) Decide(raw string) (bool, []Command) {
	if raw == "" {
		r.log.Debug("ignoring empty message URI")
		return true, nil
	}

	local := raw
	if strings.Contains(raw, jsQueryMarker) {
		local = encodeJavascriptQuery(raw)
	}

	u, err := url.Parse(local)
	if err != nil {
		r.log.Debug("invalid message URI", "uri", raw, "err", err)
		return true, nil
	}
	if u.Scheme != Scheme {
		r.log.Debug("foreign scheme in message URI", "uri", raw)
		return false, nil
	}

	params := extractQueryParams(u.RawQuery)
	var cmds []Command

	if interaction := params[paramInteraction]; interaction != "" {
		cmds = append(cmds, Command{Kind: CommandTrack, Value: interaction})
	}

	if link := params[paramLink]; link != "" {
		switch {
		case strings.Contains(link, deeplinkMarker):
			cmds = append(cmds, Command{Kind: CommandOpenLink, Value: link, Deeplink: true})
		case isHTTPURL(link):
			cmds = append(cmds, Command{Kind: CommandOpenLink, Value: link})
		default:
			r.log.Debug("link is not a valid URL", "link", link)
		}
	}

	if js := params[paramJS]; js != "" {
		cmds = append(cmds, Command{Kind: CommandRunScript, Value: js})
	}

	// Dismissal is keyed on the host, independent of the query commands.
	if u.Host == hostDismiss || u.Host == hostCancel {
		cmds = append(cmds, Command{Kind: CommandDismiss, ByUserAction: true})
	}

	return true, cmds
}

func (r *Router) apply(c Command) {
	switch c.Kind {
	case CommandTrack:
		if r.tracker == nil {
			r.log.Debug("no tracker attached, interaction dropped", "interaction", c.Value)
			return
		}
		r.tracker.TrackInteraction(c.Value)
	case CommandOpenLink:
		if c.Deeplink {
			if r.ui == nil || !r.ui.OpenURL(c.Value) {
				r.log.Debug("could not open deeplink", "url", c.Value)
			}
			return
		}
		if r.ui == nil || !r.ui.ShowURL(c.Value) {
			r.log.Debug("could not show URL", "url", c.Value)
		}
	case CommandRunScript:
		if r.surface == nil {
			r.log.Debug("no message surface attached, script dropped")
			return
		}
		r.surface.EvaluateScript(c.Value)
	case CommandDismiss:
		if r.surface == nil {
			r.log.Debug("no message surface attached, dismiss dropped")
			return
		}
		r.surface.Dismiss(c.ByUserAction)
	}
}

// encodeJavascriptQuery percent-encodes the value of the js query parameter
// so the URI parses. The generic encoder emits "+" for spaces, which the
// script surface does not understand, so those become "%20". Other parameters
// keep their position and value.
func encodeJavascriptQuery(raw string) string {
	base, query, found := strings.Cut(raw, "?")
	if !found {
		return raw
	}
	pairs := strings.Split(query, "&")
	for i, pair := range pairs {
		key, value, hasValue := strings.Cut(pair, "=")
		if !hasValue || key != paramJS || value == "" {
			continue
		}
		encoded := strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
		pairs[i] = key + "=" + encoded
	}
	return base + "?" + strings.Join(pairs, "&")
}

// extractQueryParams splits a raw query into a key→value map. Keys keep their
// spelling, values are percent-decoded when possible, and the last value wins
// on duplicate keys.
func extractQueryParams(rawQuery string) map[string]string {
	params := make(map[string]string)
	if rawQuery == "" {
		return params
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		params[key] = value
	}
	return params
}

// isHTTPURL reports whether link parses as an absolute http or https URL.
func isHTTPURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
