package inject

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	"github.com/matzehuels/proxprefetch/pkg/buildinfo"
	"github.com/matzehuels/proxprefetch/pkg/errors"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// MarkerAttr is set on the injected script element. Transform replaces a
// script element carrying it instead of adding a second one.
const MarkerAttr = "data-proxprefetch"

//go:embed prefetch.js.tmpl
var scriptSource string

var scriptTemplate = template.Must(template.New("prefetch").Parse(scriptSource))

// scriptData holds the literal values written into the script. Every field
// is a number or a boolean; html/template serializes them as JS literals.
type scriptData struct {
	Version               string
	Threshold             float64
	PredictionInterval    int64
	MaxPrefetch           int
	Debug                 bool
	MobileSupport         bool
	ViewportMargin        float64
	PrefetchAllLinks      bool
	PrefetchAllLinksDelay int64
	ThrottleInterval      int64
}

// Script renders the self-contained tracker script for cfg as a complete
// <script> element.
func Script(cfg prefetch.Config) (string, error) {
	if err := errors.ValidateNonNegative("threshold", cfg.Threshold); err != nil {
		return "", err
	}
	if err := errors.ValidateNonNegative("viewportMargin", cfg.ViewportMargin); err != nil {
		return "", err
	}
	if cfg.MaxPrefetch < 0 || cfg.PredictionInterval < 0 || cfg.PrefetchAllLinksDelay < 0 {
		return "", errors.New(errors.ErrCodeInvalidConfig, "negative maxPrefetch or duration in %+v", cfg)
	}

	data := scriptData{
		Version:               buildinfo.Version,
		Threshold:             cfg.Threshold,
		PredictionInterval:    cfg.PredictionInterval.Milliseconds(),
		MaxPrefetch:           cfg.MaxPrefetch,
		Debug:                 cfg.Debug,
		MobileSupport:         cfg.MobileSupport,
		ViewportMargin:        cfg.ViewportMargin,
		PrefetchAllLinks:      cfg.PrefetchAllLinks,
		PrefetchAllLinksDelay: cfg.PrefetchAllLinksDelay.Milliseconds(),
		ThrottleInterval:      int64(prefetch.MinEvaluationInterval / time.Millisecond),
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "render prefetch script")
	}
	return buf.String(), nil
}
