package inject

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxprefetch/pkg/errors"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

const page = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>App</title>
    <script type="module" crossorigin src="/assets/index.js"></script>
    <link rel="modulepreload" crossorigin href="/assets/vendor.js">
    <link rel="stylesheet" href="/assets/index.css">
  </head>
  <body>
    <div id="app"></div>
  </body>
</html>
`

func noEnv(string) (string, bool) { return "", false }

func newPlugin(t *testing.T, opts Options, extra ...PluginOption) *Plugin {
	t.Helper()
	all := append([]PluginOption{WithLookupEnv(noEnv), WithLogger(log.New(io.Discard))}, extra...)
	p, err := New(opts, all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestTransformMarksModulePreload(t *testing.T) {
	p := newPlugin(t, Options{})

	res, err := p.Transform([]byte(page))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if res.Marked != 1 {
		t.Errorf("Marked = %d, want 1", res.Marked)
	}
	if res.Injected {
		t.Error("script should not be injected without automaticPrefetch")
	}

	out := string(res.HTML)
	if !strings.Contains(out, `<link rel="modulepreload" crossorigin="" href="/assets/vendor.js" data-prefetch="true">`) {
		t.Errorf("modulepreload link not marked:\n%s", out)
	}
	if !strings.Contains(out, `<link rel="stylesheet" href="/assets/index.css">`) {
		t.Error("other links should be copied unchanged")
	}
	if strings.Contains(out, MarkerAttr) {
		t.Error("no script expected")
	}
}

func TestTransformInjectsBeforeHead(t *testing.T) {
	p := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true)})

	res, err := p.Transform([]byte(page))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if !res.Injected {
		t.Fatal("script should be injected")
	}

	out := string(res.HTML)
	script := strings.Index(out, "<script "+MarkerAttr)
	head := strings.Index(out, "</head>")
	if script < 0 || head < 0 || script > head {
		t.Fatalf("script must precede </head> (script=%d head=%d)", script, head)
	}
	if strings.Count(out, "</head>") != 1 {
		t.Error("</head> should appear exactly once")
	}
	if !strings.Contains(out[script:head], "</script>\n") {
		t.Error("script should be followed by a newline before </head>")
	}
}

func TestTransformIsIdempotent(t *testing.T) {
	p := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true)})

	once, err := p.TransformIndexHTML([]byte(page))
	if err != nil {
		t.Fatalf("first transform error = %v", err)
	}
	res, err := p.Transform(once)
	if err != nil {
		t.Fatalf("second transform error = %v", err)
	}
	if res.Marked != 0 || !res.Replaced || !res.Injected {
		t.Errorf("second transform result = %+v, want the script replaced in place", res)
	}
	if !bytes.Equal(res.HTML, once) {
		t.Errorf("second transform output differs from first:\n%s", res.HTML)
	}
	if n := strings.Count(string(res.HTML), "<script "+MarkerAttr); n != 1 {
		t.Errorf("page carries %d injected scripts, want 1", n)
	}
}

func TestTransformReplacesStaleScript(t *testing.T) {
	old := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true), Options: prefetch.Options{Threshold: prefetch.Ptr(100.0)}})
	cur := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true), Options: prefetch.Options{Threshold: prefetch.Ptr(300.0)}})

	once, err := old.TransformIndexHTML([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	again, err := cur.TransformIndexHTML(once)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := cur.TransformIndexHTML([]byte(page))
	if err != nil {
		t.Fatal(err)
	}

	out := string(again)
	if !regexp.MustCompile(`threshold:\s*300\s*,`).MatchString(out) {
		t.Error("re-injected page should carry the new threshold")
	}
	if regexp.MustCompile(`threshold:\s*100\s*,`).MatchString(out) {
		t.Error("re-injected page still carries the old threshold")
	}
	if !bytes.Equal(again, fresh) {
		t.Errorf("re-injected page differs from a fresh transform:\ngot  %s\nwant %s", again, fresh)
	}
}

func TestTransformRemovesScriptWhenDisabled(t *testing.T) {
	on := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true)})
	off := newPlugin(t, Options{})

	injected, err := on.TransformIndexHTML([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	res, err := off.Transform(injected)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Replaced || res.Injected {
		t.Errorf("result = %+v, want the old script removed", res)
	}
	if strings.Contains(string(res.HTML), MarkerAttr) {
		t.Errorf("script should be removed:\n%s", res.HTML)
	}
	marked, _ := off.TransformIndexHTML([]byte(page))
	if !bytes.Equal(res.HTML, marked) {
		t.Errorf("removal should restore the marked page:\ngot  %s\nwant %s", res.HTML, marked)
	}
}

func TestTransformIgnoresMarkerText(t *testing.T) {
	p := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true)})

	tests := []struct {
		name string
		src  string
	}{
		{"body text", `<html><head><title>Docs</title></head><body><p>The script carries a data-proxprefetch attribute.</p></body></html>`},
		{"code sample", `<html><head></head><body><pre>&lt;script data-proxprefetch="1.0"&gt;</pre></body></html>`},
		{"other element", `<html><head><meta name="data-proxprefetch"></head><body><div data-proxprefetch="x"></div></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Transform([]byte(tt.src))
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if !res.Injected || res.Replaced {
				t.Errorf("result = %+v, want a fresh injection", res)
			}
			if !strings.Contains(string(res.HTML), "<script "+MarkerAttr) {
				t.Errorf("script not injected:\n%s", res.HTML)
			}
		})
	}
}

func TestTransformWithoutHead(t *testing.T) {
	p := newPlugin(t, Options{AutomaticPrefetch: prefetch.Ptr(true)})

	src := `<div><a href="/x">x</a></div>`
	res, err := p.Transform([]byte(src))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if res.Injected || string(res.HTML) != src {
		t.Errorf("page without </head> should pass through, got %q", res.HTML)
	}
}

func TestTransformPreservesBytes(t *testing.T) {
	p := newPlugin(t, Options{})

	src := "<!-- keep -->\n<HTML><Head><script>if (a < b && c > d) {}</script></Head><body data-x='1'>&amp; text</body></HTML>"
	out, err := p.TransformIndexHTML([]byte(src))
	if err != nil {
		t.Fatalf("TransformIndexHTML() error = %v", err)
	}
	if string(out) != src {
		t.Errorf("unchanged tokens should be copied verbatim:\ngot  %q\nwant %q", out, src)
	}
}

func TestMarkModulePreloadVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"rel first", `<link rel="modulepreload" href="/a.js">`, 1},
		{"rel later", `<link href="/a.js" rel="modulepreload">`, 1},
		{"uppercase", `<LINK REL="ModulePreload" href="/a.js">`, 1},
		{"self closing", `<link rel="modulepreload" href="/a.js" />`, 1},
		{"already marked", `<link rel="modulepreload" data-prefetch="true" href="/a.js">`, 0},
		{"preload", `<link rel="preload" href="/a.js">`, 0},
	}

	p := newPlugin(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Transform([]byte(tt.src))
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if res.Marked != tt.want {
				t.Errorf("Marked = %d, want %d (%s)", res.Marked, tt.want, res.HTML)
			}
		})
	}
}

func TestNewDebugFromEnv(t *testing.T) {
	env := func(k string) (string, bool) {
		if k == DebugEnv {
			return "true", true
		}
		return "", false
	}
	p := newPlugin(t, Options{}, WithLookupEnv(env))
	if !p.Config().Debug {
		t.Error("PPF_DEBUG=true should force debug on")
	}

	p = newPlugin(t, Options{Options: prefetch.Options{Debug: prefetch.Ptr(true)}})
	if !p.Config().Debug {
		t.Error("explicit debug should stay on without the env switch")
	}

	notTrue := func(string) (string, bool) { return "1", true }
	p = newPlugin(t, Options{}, WithLookupEnv(notTrue))
	if p.Config().Debug {
		t.Error("only the literal value \"true\" enables debug")
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(Options{Options: prefetch.Options{MaxPrefetch: prefetch.Ptr(-1)}}, WithLookupEnv(noEnv))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New() error = %v, want INVALID_CONFIG", err)
	}
}

func TestConfigResolvedLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	p := newPlugin(t, Options{Options: prefetch.Options{Debug: prefetch.Ptr(true)}}, WithLogger(logger))
	p.ConfigResolved()

	out := buf.String()
	if !strings.Contains(out, "proximity prefetch plugin enabled") {
		t.Errorf("missing enabled line: %s", out)
	}
	if !strings.Contains(out, "threshold=200") {
		t.Errorf("debug mode should log options: %s", out)
	}
}
