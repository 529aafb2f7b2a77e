package router

import (
	"strings"
	"testing"
)

func kinds(cmds []Command) []CommandKind {
	out := make([]CommandKind, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Kind)
	}
	return out
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name         string
		uri          string
		wantConsumed bool
		wantKinds    []CommandKind
	}{
		{
			name:         "empty input",
			uri:          "",
			wantConsumed: true,
		},
		{
			name:         "dismiss host",
			uri:          "adbinapp://dismiss",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandDismiss},
		},
		{
			name:         "cancel host",
			uri:          "adbinapp://cancel",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandDismiss},
		},
		{
			name:         "wrong scheme",
			uri:          "https://example.com",
			wantConsumed: false,
		},
		{
			name:         "no scheme",
			uri:          "example.com/page",
			wantConsumed: false,
		},
		{
			name:         "malformed uri",
			uri:          "adbinapp://dis\nmiss",
			wantConsumed: true,
		},
		{
			name:         "interaction only",
			uri:          "adbinapp://interact?interaction=confirmed",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandTrack},
		},
		{
			name:         "empty interaction ignored",
			uri:          "adbinapp://interact?interaction=",
			wantConsumed: true,
		},
		{
			name:         "http link",
			uri:          "adbinapp://interact?link=https%3A%2F%2Fexample.com%2Fsale",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandOpenLink},
		},
		{
			name:         "invalid link dropped",
			uri:          "adbinapp://interact?link=notaurl",
			wantConsumed: true,
		},
		{
			name:         "deeplink",
			uri:          "adbinapp://interact?link=app%3A%2F%2Fdeeplink%2Foffers",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandOpenLink},
		},
		{
			name:         "script",
			uri:          "adbinapp://interact?js=alert('x')",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandRunScript},
		},
		{
			name:         "link and script and dismiss co-occur",
			uri:          "adbinapp://dismiss?interaction=clicked&link=https%3A%2F%2Fexample.com&js=alert('x')",
			wantConsumed: true,
			wantKinds:    []CommandKind{CommandTrack, CommandOpenLink, CommandRunScript, CommandDismiss},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(nil, nil, nil, nil)
			consumed, cmds := r.Decide(tc.uri)
			if consumed != tc.wantConsumed {
				t.Errorf("consumed = %v, want %v", consumed, tc.wantConsumed)
			}
			got := kinds(cmds)
			if len(got) != len(tc.wantKinds) {
				t.Fatalf("commands = %v, want %v", got, tc.wantKinds)
			}
			for i := range got {
				if got[i] != tc.wantKinds[i] {
					t.Errorf("command[%d] = %v, want %v", i, got[i], tc.wantKinds[i])
				}
			}
		})
	}
}

func TestDecideDismissDetail(t *testing.T) {
	r := New(nil, nil, nil, nil)
	consumed, cmds := r.Decide("adbinapp://dismiss")
	if !consumed {
		t.Fatal("consumed = false, want true")
	}
	if len(cmds) != 1 || cmds[0].Kind != CommandDismiss || !cmds[0].ByUserAction {
		t.Errorf("commands = %+v, want single Dismiss(byUserAction=true)", cmds)
	}
}

func TestDecideDeeplinkRouting(t *testing.T) {
	r := New(nil, nil, nil, nil)

	_, cmds := r.Decide("adbinapp://interact?link=app%3A%2F%2Fdeeplink%2Foffers")
	if len(cmds) != 1 || !cmds[0].Deeplink {
		t.Errorf("deeplink marker should route through the native opener, got %+v", cmds)
	}

	_, cmds = r.Decide("adbinapp://interact?link=https%3A%2F%2Fexample.com")
	if len(cmds) != 1 || cmds[0].Deeplink {
		t.Errorf("plain http link should route through the UI surface, got %+v", cmds)
	}
}

func TestDecideScriptKeepsCode(t *testing.T) {
	r := New(nil, nil, nil, nil)
	_, cmds := r.Decide("adbinapp://interact?js=alert('hello world')")
	if len(cmds) != 1 || cmds[0].Kind != CommandRunScript {
		t.Fatalf("commands = %+v, want single RunScript", cmds)
	}
	if cmds[0].Value != "alert('hello world')" {
		t.Errorf("script = %q, want alert('hello world')", cmds[0].Value)
	}
}

func TestEncodeJavascriptQuery(t *testing.T) {
	got := encodeJavascriptQuery("adbinapp://interact?js=alert('hello world')")
	if strings.Contains(got, "+") {
		t.Errorf("encoded query uses + for spaces: %s", got)
	}
	if !strings.Contains(got, "%20") {
		t.Errorf("encoded query missing %%20 for spaces: %s", got)
	}
	if !strings.HasPrefix(got, "adbinapp://interact?") {
		t.Errorf("base URI mangled: %s", got)
	}

	// Other parameters keep their position and value.
	got = encodeJavascriptQuery("adbinapp://interact?interaction=ok&js=a b")
	want := "adbinapp://interact?interaction=ok&js=a%20b"
	if got != want {
		t.Errorf("encodeJavascriptQuery = %q, want %q", got, want)
	}

	// No query part: returned untouched.
	if got := encodeJavascriptQuery("adbinapp-js="); got != "adbinapp-js=" {
		t.Errorf("queryless input changed: %q", got)
	}
}

func TestExtractQueryParams(t *testing.T) {
	params := extractQueryParams("a=1&b=two%20words&a=3&novalue&=orphan")
	if got := params["a"]; got != "3" {
		t.Errorf("last value should win for duplicate keys, got %q", got)
	}
	if got := params["b"]; got != "two words" {
		t.Errorf("value not decoded, got %q", got)
	}
	if _, ok := params["novalue"]; ok {
		t.Error("pair without '=' should be skipped")
	}
}

// ── command application ──────────────────────────────────────────────────────

type fakeTracker struct {
	interactions []string
}

func (f *fakeTracker) TrackInteraction(id string) { f.interactions = append(f.interactions, id) }

type fakeUI struct {
	opened []string
	shown  []string
	showOK bool
}

func (f *fakeUI) OpenURL(url string) bool { f.opened = append(f.opened, url); return true }
func (f *fakeUI) ShowURL(url string) bool { f.shown = append(f.shown, url); return f.showOK }

type fakeSurface struct {
	scripts   []string
	dismissed []bool
}

func (f *fakeSurface) EvaluateScript(code string) { f.scripts = append(f.scripts, code) }
func (f *fakeSurface) Dismiss(byUserAction bool)  { f.dismissed = append(f.dismissed, byUserAction) }

func TestHandleURLAppliesCommands(t *testing.T) {
	tracker := &fakeTracker{}
	ui := &fakeUI{showOK: true}
	surface := &fakeSurface{}
	r := New(tracker, ui, surface, nil)

	consumed := r.HandleURL("adbinapp://dismiss?interaction=clicked&link=https%3A%2F%2Fexample.com&js=alert('x')")
	if !consumed {
		t.Fatal("consumed = false, want true")
	}
	if len(tracker.interactions) != 1 || tracker.interactions[0] != "clicked" {
		t.Errorf("tracked = %v, want [clicked]", tracker.interactions)
	}
	if len(ui.shown) != 1 || ui.shown[0] != "https://example.com" {
		t.Errorf("shown = %v, want [https://example.com]", ui.shown)
	}
	if len(surface.scripts) != 1 || surface.scripts[0] != "alert('x')" {
		t.Errorf("scripts = %v, want [alert('x')]", surface.scripts)
	}
	if len(surface.dismissed) != 1 || !surface.dismissed[0] {
		t.Errorf("dismissed = %v, want [true]", surface.dismissed)
	}
}

func TestHandleURLToleratesFailingCollaborators(t *testing.T) {
	// ShowURL failure and missing collaborators are logged, never propagated.
	r := New(nil, &fakeUI{showOK: false}, nil, nil)
	if !r.HandleURL("adbinapp://dismiss?interaction=x&link=https%3A%2F%2Fexample.com&js=y") {
		t.Error("consumed = false, want true")
	}
}

func TestHandleURLForeignScheme(t *testing.T) {
	tracker := &fakeTracker{}
	r := New(tracker, nil, nil, nil)
	if r.HandleURL("https://example.com") {
		t.Error("consumed = true for foreign scheme, want false")
	}
	if len(tracker.interactions) != 0 {
		t.Errorf("tracked %v on foreign scheme, want none", tracker.interactions)
	}
}
