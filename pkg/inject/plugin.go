package inject

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/matzehuels/proxprefetch/pkg/errors"
)

// Name identifies the plugin in logs.
const Name = "proxprefetch"

// Plugin rewrites HTML pages for proximity prefetching. It is immutable
// after New and safe for concurrent use.
type Plugin struct {
	cfg    Config
	script string
	logger *log.Logger
}

// PluginOption customizes a Plugin.
type PluginOption func(*pluginSettings)

type pluginSettings struct {
	logger    *log.Logger
	lookupEnv func(string) (string, bool)
}

// WithLogger sets the plugin logger.
func WithLogger(l *log.Logger) PluginOption {
	return func(s *pluginSettings) { s.logger = l }
}

// WithLookupEnv replaces os.LookupEnv for reading PPF_DEBUG.
func WithLookupEnv(fn func(string) (string, bool)) PluginOption {
	return func(s *pluginSettings) { s.lookupEnv = fn }
}

// New resolves opts and returns a plugin. The script is rendered once here.
func New(opts Options, pluginOpts ...PluginOption) (*Plugin, error) {
	s := pluginSettings{lookupEnv: os.LookupEnv}
	for _, o := range pluginOpts {
		o(&s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	v, _ := s.lookupEnv(DebugEnv)
	cfg, err := Resolve(opts, v == "true")
	if err != nil {
		return nil, err
	}

	p := &Plugin{cfg: cfg, logger: s.logger.WithPrefix(Name)}
	if cfg.AutomaticPrefetch {
		if p.script, err = Script(cfg.Config); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Config returns the resolved configuration.
func (p *Plugin) Config() Config { return p.cfg }

// ConfigResolved announces the plugin and, in debug mode, its options.
func (p *Plugin) ConfigResolved() {
	p.logger.Info("proximity prefetch plugin enabled")
	if p.cfg.Debug {
		p.logger.Info("options",
			"threshold", p.cfg.Threshold,
			"predictionInterval", p.cfg.PredictionInterval,
			"maxPrefetch", p.cfg.MaxPrefetch,
			"automaticPrefetch", p.cfg.AutomaticPrefetch,
			"mobileSupport", p.cfg.MobileSupport,
			"prefetchAllLinks", p.cfg.PrefetchAllLinks,
			"debug", p.cfg.Debug)
	}
}

// Result describes one transformed page.
type Result struct {
	HTML     []byte
	Marked   int  // modulepreload links that received data-prefetch
	Injected bool // whether the output carries a freshly rendered script
	Replaced bool // whether a previously injected script was removed
}

// TransformIndexHTML rewrites src and returns the new page.
func (p *Plugin) TransformIndexHTML(src []byte) ([]byte, error) {
	res, err := p.Transform(src)
	if err != nil {
		return nil, err
	}
	return res.HTML, nil
}

// Transform rewrites src token by token. Tokens that need no change are
// copied byte for byte. A script element carrying MarkerAttr is dropped and,
// when automatic prefetching is on, the current script is written before the
// first </head>. Running it on its own output changes nothing.
func (p *Plugin) Transform(src []byte) (*Result, error) {
	res := &Result{}
	inject := p.cfg.AutomaticPrefetch

	var out bytes.Buffer
	out.Grow(len(src) + len(p.script) + 64)

	var (
		inOld       bool // inside a previously injected script element
		trimNewline bool // drop the newline written after a removed script
	)

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, errors.Wrap(errors.ErrCodeInvalidHTML, err, "tokenize html")
			}
			break
		}
		raw := append([]byte(nil), z.Raw()...)

		if inOld {
			if tt == html.EndTagToken {
				if name, _ := z.TagName(); string(name) == "script" {
					inOld = false
					trimNewline = true
				}
			}
			continue
		}
		if trimNewline {
			trimNewline = false
			if tt == html.TextToken && len(raw) > 0 && raw[0] == '\n' {
				raw = raw[1:]
			}
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.Data == "link" && markModulePreload(&tok):
				res.Marked++
				out.WriteString(tok.String())
				continue
			case tok.Data == "script" && hasAttr(tok, MarkerAttr):
				res.Replaced = true
				inOld = tt == html.StartTagToken
				continue
			}

		case html.EndTagToken:
			tok := z.Token()
			if inject && !res.Injected && tok.Data == "head" {
				out.WriteString(p.script)
				out.WriteByte('\n')
				res.Injected = true
			}
		}
		out.Write(raw)
	}

	if inject && !res.Injected {
		p.logger.Debug("no </head> found, script not injected")
	}
	if res.Replaced && !inject {
		p.logger.Debug("removed previously injected script")
	}
	res.HTML = out.Bytes()
	return res, nil
}

func hasAttr(tok html.Token, key string) bool {
	for _, a := range tok.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// markModulePreload adds data-prefetch="true" to a modulepreload link.
// It reports false for other links and for links already marked.
func markModulePreload(tok *html.Token) bool {
	preload := false
	for _, a := range tok.Attr {
		switch a.Key {
		case "rel":
			for _, v := range strings.Fields(strings.ToLower(a.Val)) {
				if v == "modulepreload" {
					preload = true
				}
			}
		case "data-prefetch":
			return false
		}
	}
	if !preload {
		return false
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: "data-prefetch", Val: "true"})
	return true
}
