package inject

import (
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// DebugEnv is the environment variable that forces debug output on at
// build-configuration time, independently of the explicit option.
const DebugEnv = "PPF_DEBUG"

// Options is the plugin configuration: the tracker options plus the switch
// that enables script injection.
type Options struct {
	prefetch.Options `yaml:",inline"`

	// AutomaticPrefetch injects the self-contained tracker script into every
	// transformed page, so no component is needed in the application.
	AutomaticPrefetch *bool `json:"automaticPrefetch,omitempty" toml:"automaticPrefetch,omitempty" yaml:"automaticPrefetch,omitempty"`
}

// Merge returns o with every field set in over taking precedence.
func (o Options) Merge(over Options) Options {
	o.Options = o.Options.Merge(over.Options)
	if over.AutomaticPrefetch != nil {
		o.AutomaticPrefetch = over.AutomaticPrefetch
	}
	return o
}

// Config is the resolved plugin configuration.
type Config struct {
	prefetch.Config
	AutomaticPrefetch bool
}

// Resolve merges o over the defaults. debugEnv is OR-ed into Debug.
func Resolve(o Options, debugEnv bool) (Config, error) {
	cfg, err := prefetch.Resolve(o.Options)
	if err != nil {
		return Config{}, err
	}
	cfg.Debug = cfg.Debug || debugEnv

	out := Config{Config: cfg}
	if o.AutomaticPrefetch != nil {
		out.AutomaticPrefetch = *o.AutomaticPrefetch
	}
	return out, nil
}
