package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// runCLI executes a fresh root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScriptCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		env   string
		wants []*regexp.Regexp
	}{
		{
			name:  "defaults",
			args:  []string{"script"},
			wants: []*regexp.Regexp{regexp.MustCompile(`data-proxprefetch=`), regexp.MustCompile(`threshold:\s*200\s*,`)},
		},
		{
			name:  "flag override",
			args:  []string{"script", "--threshold", "50", "--max-prefetch", "1"},
			wants: []*regexp.Regexp{regexp.MustCompile(`threshold:\s*50\s*,`), regexp.MustCompile(`maxPrefetch:\s*1\s*,`)},
		},
		{
			name:  "debug from env",
			args:  []string{"script"},
			env:   "true",
			wants: []*regexp.Regexp{regexp.MustCompile(`\|\|\s*true\s*;`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PPF_DEBUG", tt.env)
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("script: %v", err)
			}
			for _, re := range tt.wants {
				if !re.MatchString(out) {
					t.Errorf("output does not match %s:\n%s", re, out)
				}
			}
		})
	}
}

func TestScriptCommandRejectsNegative(t *testing.T) {
	if _, err := runCLI(t, "script", "--threshold=-1"); err == nil {
		t.Error("negative threshold should fail")
	}
}

const cliScenario = `{
  "name": "hover",
  "links": [
    {"href": "/near", "rect": {"left": 100, "top": 100, "width": 20, "height": 20}},
    {"href": "/far", "rect": {"left": 1000, "top": 1000, "width": 20, "height": 20}}
  ],
  "steps": [
    {"at": 0, "pointer": {"x": 110, "y": 150}}
  ]
}`

func TestSimulateCommandJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hover.json")
	if err := os.WriteFile(path, []byte(cliScenario), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "simulate", "--json", path)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var got reportJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if got.Scenario != "hover" {
		t.Errorf("Scenario = %q, want hover", got.Scenario)
	}
	if len(got.Dispatches) != 1 {
		t.Fatalf("Dispatches = %+v, want one", got.Dispatches)
	}
	d := got.Dispatches[0]
	if d.Href != "/near" || d.AtMS != 0 || d.Trigger != "pointer" {
		t.Errorf("dispatch = %+v", d)
	}
	if d.Distance == nil || *d.Distance != 40 {
		t.Errorf("Distance = %v, want 40", d.Distance)
	}
	if want := `<link rel="prefetch" href="/near" as="document">`; d.Markup != want {
		t.Errorf("Markup = %q, want %q", d.Markup, want)
	}
}

func TestSimulateCommandThresholdOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hover.json")
	if err := os.WriteFile(path, []byte(cliScenario), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "simulate", "--json", "--threshold", "30", path)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	var got reportJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Dispatches) != 0 {
		t.Errorf("Dispatches = %+v, want none below a 30px threshold", got.Dispatches)
	}
}

func TestSimulateCommandTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hover.json")
	if err := os.WriteFile(path, []byte(cliScenario), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "simulate", path)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, want := range []string{"hover", "/near", "1 prefetched"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/far") {
		t.Errorf("output should not list /far:\n%s", out)
	}
}

func TestSimulateCommandMissingFile(t *testing.T) {
	if _, err := runCLI(t, "simulate", filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing scenario should fail")
	}
}

const cliPage = `<!doctype html><html><head><title>app</title></head><body><a href="/docs">docs</a></body></html>`

func TestInjectCommand(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(cliPage), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "inject", "--no-cache", "--dry-run", "--automatic-prefetch", dir); err != nil {
		t.Fatalf("inject --dry-run: %v", err)
	}
	data, _ := os.ReadFile(page)
	if string(data) != cliPage {
		t.Fatalf("dry run modified the page:\n%s", data)
	}

	if _, err := runCLI(t, "inject", "--no-cache", "--automatic-prefetch", dir); err != nil {
		t.Fatalf("inject: %v", err)
	}
	data, _ = os.ReadFile(page)
	if !strings.Contains(string(data), "data-proxprefetch") {
		t.Fatalf("page was not rewritten:\n%s", data)
	}
	if strings.Index(string(data), "data-proxprefetch") > strings.Index(string(data), "</head>") {
		t.Error("script should be inserted before </head>")
	}

	// A second run leaves the page alone.
	if _, err := runCLI(t, "inject", "--no-cache", "--automatic-prefetch", dir); err != nil {
		t.Fatalf("inject again: %v", err)
	}
	again, _ := os.ReadFile(page)
	if !bytes.Equal(again, data) {
		t.Error("second inject changed the page")
	}
}

func TestCachePathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(xdg, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(cliPage), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "inject", "--dry-run", dir); err != nil {
		t.Fatalf("inject: %v", err)
	}

	var entries int
	_ = filepath.Walk(filepath.Join(xdg, appName), func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			entries++
		}
		return nil
	})
	if entries == 0 {
		t.Fatal("inject should have populated the cache")
	}

	if _, err := runCLI(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries = 0
	_ = filepath.Walk(filepath.Join(xdg, appName), func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			entries++
		}
		return nil
	})
	if entries != 0 {
		t.Errorf("cache holds %d entries after clear", entries)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion should mention the program name")
	}
}
