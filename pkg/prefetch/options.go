package prefetch

import (
	"time"

	"github.com/matzehuels/proxprefetch/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultThreshold is the pointer-to-link-center distance, in pixels,
	// below which a link becomes a prefetch candidate.
	DefaultThreshold = 200.0

	// DefaultPredictionInterval of zero makes evaluation event-driven.
	DefaultPredictionInterval = 0 * time.Millisecond

	// DefaultMaxPrefetch caps the links dispatched per proximity pass.
	DefaultMaxPrefetch = 3

	// DefaultViewportMargin extends the viewport on each side when mobile
	// support selects candidates from scroll/resize events.
	DefaultViewportMargin = 100.0

	// DefaultPrefetchAllLinksDelay is the wait between page readiness and
	// prefetch-all dispatch.
	DefaultPrefetchAllLinksDelay = time.Second

	// MinEvaluationInterval is the throttle floor between two passes. It
	// applies in addition to any configured prediction interval.
	MinEvaluationInterval = 100 * time.Millisecond
)

// =============================================================================
// Options - caller-supplied, partial
// =============================================================================

// Options is the caller-supplied configuration. Nil fields fall back to the
// defaults in [Resolve]; pointers keep "unset" distinct from zero, which
// matters because a zero prediction interval and a zero MaxPrefetch are both
// meaningful.
//
// Durations are integer milliseconds so the same struct decodes from TOML,
// YAML and JSON files and from the command line.
type Options struct {
	Threshold             *float64 `json:"threshold,omitempty" toml:"threshold,omitempty" yaml:"threshold,omitempty"`
	PredictionInterval    *int     `json:"predictionInterval,omitempty" toml:"predictionInterval,omitempty" yaml:"predictionInterval,omitempty"`
	MaxPrefetch           *int     `json:"maxPrefetch,omitempty" toml:"maxPrefetch,omitempty" yaml:"maxPrefetch,omitempty"`
	Debug                 *bool    `json:"debug,omitempty" toml:"debug,omitempty" yaml:"debug,omitempty"`
	MobileSupport         *bool    `json:"mobileSupport,omitempty" toml:"mobileSupport,omitempty" yaml:"mobileSupport,omitempty"`
	ViewportMargin        *float64 `json:"viewportMargin,omitempty" toml:"viewportMargin,omitempty" yaml:"viewportMargin,omitempty"`
	PrefetchAllLinks      *bool    `json:"prefetchAllLinks,omitempty" toml:"prefetchAllLinks,omitempty" yaml:"prefetchAllLinks,omitempty"`
	PrefetchAllLinksDelay *int     `json:"prefetchAllLinksDelay,omitempty" toml:"prefetchAllLinksDelay,omitempty" yaml:"prefetchAllLinksDelay,omitempty"`
}

// Ptr returns a pointer to v. It keeps Options literals short.
func Ptr[T any](v T) *T { return &v }

// Merge returns o with every field that is set in over replaced by over's
// value. It is used to layer command-line flags over a config file.
func (o Options) Merge(over Options) Options {
	if over.Threshold != nil {
		o.Threshold = over.Threshold
	}
	if over.PredictionInterval != nil {
		o.PredictionInterval = over.PredictionInterval
	}
	if over.MaxPrefetch != nil {
		o.MaxPrefetch = over.MaxPrefetch
	}
	if over.Debug != nil {
		o.Debug = over.Debug
	}
	if over.MobileSupport != nil {
		o.MobileSupport = over.MobileSupport
	}
	if over.ViewportMargin != nil {
		o.ViewportMargin = over.ViewportMargin
	}
	if over.PrefetchAllLinks != nil {
		o.PrefetchAllLinks = over.PrefetchAllLinks
	}
	if over.PrefetchAllLinksDelay != nil {
		o.PrefetchAllLinksDelay = over.PrefetchAllLinksDelay
	}
	return o
}

// =============================================================================
// Config - resolved, immutable
// =============================================================================

// Config is the resolved configuration held by a tracker for its lifetime.
// Obtain one from [Resolve] or [DefaultConfig]; the zero value is valid but
// disables everything (zero threshold selects nothing).
type Config struct {
	Threshold             float64
	PredictionInterval    time.Duration
	MaxPrefetch           int
	Debug                 bool
	MobileSupport         bool
	ViewportMargin        float64
	PrefetchAllLinks      bool
	PrefetchAllLinksDelay time.Duration
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Threshold:             DefaultThreshold,
		PredictionInterval:    DefaultPredictionInterval,
		MaxPrefetch:           DefaultMaxPrefetch,
		ViewportMargin:        DefaultViewportMargin,
		PrefetchAllLinksDelay: DefaultPrefetchAllLinksDelay,
	}
}

// Resolve merges o over [DefaultConfig] and validates the result.
// Negative or non-finite numbers are rejected with an INVALID_CONFIG error.
func Resolve(o Options) (Config, error) {
	cfg := DefaultConfig()

	if o.Threshold != nil {
		if err := errors.ValidateNonNegative("threshold", *o.Threshold); err != nil {
			return Config{}, err
		}
		cfg.Threshold = *o.Threshold
	}
	if o.PredictionInterval != nil {
		if *o.PredictionInterval < 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "predictionInterval must be >= 0, got %d", *o.PredictionInterval)
		}
		cfg.PredictionInterval = time.Duration(*o.PredictionInterval) * time.Millisecond
	}
	if o.MaxPrefetch != nil {
		if *o.MaxPrefetch < 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "maxPrefetch must be >= 0, got %d", *o.MaxPrefetch)
		}
		cfg.MaxPrefetch = *o.MaxPrefetch
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.MobileSupport != nil {
		cfg.MobileSupport = *o.MobileSupport
	}
	if o.ViewportMargin != nil {
		if err := errors.ValidateNonNegative("viewportMargin", *o.ViewportMargin); err != nil {
			return Config{}, err
		}
		cfg.ViewportMargin = *o.ViewportMargin
	}
	if o.PrefetchAllLinks != nil {
		cfg.PrefetchAllLinks = *o.PrefetchAllLinks
	}
	if o.PrefetchAllLinksDelay != nil {
		if *o.PrefetchAllLinksDelay < 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "prefetchAllLinksDelay must be >= 0, got %d", *o.PrefetchAllLinksDelay)
		}
		cfg.PrefetchAllLinksDelay = time.Duration(*o.PrefetchAllLinksDelay) * time.Millisecond
	}

	return cfg, nil
}

// EventDriven reports whether passes run on input events rather than on a
// periodic timer.
func (c Config) EventDriven() bool { return c.PredictionInterval <= 0 }

// ProximityEnabled reports whether proximity passes can dispatch anything.
// MaxPrefetch == 0 disables proximity dispatch; prefetch-all is unaffected.
func (c Config) ProximityEnabled() bool { return c.MaxPrefetch > 0 }

// Options converts c back to a fully populated Options value.
func (c Config) Options() Options {
	return Options{
		Threshold:             Ptr(c.Threshold),
		PredictionInterval:    Ptr(int(c.PredictionInterval / time.Millisecond)),
		MaxPrefetch:           Ptr(c.MaxPrefetch),
		Debug:                 Ptr(c.Debug),
		MobileSupport:         Ptr(c.MobileSupport),
		ViewportMargin:        Ptr(c.ViewportMargin),
		PrefetchAllLinks:      Ptr(c.PrefetchAllLinks),
		PrefetchAllLinksDelay: Ptr(int(c.PrefetchAllLinksDelay / time.Millisecond)),
	}
}
