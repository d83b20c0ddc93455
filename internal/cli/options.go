package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/config"
	"github.com/matzehuels/proxprefetch/pkg/inject"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// optionFlags binds the plugin options to command-line flags. Only flags
// the user actually set override the config file.
type optionFlags struct {
	configPath string

	threshold             float64
	predictionInterval    int
	maxPrefetch           int
	debug                 bool
	mobileSupport         bool
	viewportMargin        float64
	prefetchAllLinks      bool
	prefetchAllLinksDelay int
	automaticPrefetch     bool
}

// register adds the option flags to cmd. withAutomatic adds
// --automatic-prefetch, which only makes sense for page rewriting.
func (f *optionFlags) register(cmd *cobra.Command, withAutomatic bool) {
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "options file (.toml, .yaml, .yml, .json); default: proxprefetch.* in the working directory")
	fl.Float64Var(&f.threshold, "threshold", prefetch.DefaultThreshold, "distance in px below which a link is prefetched")
	fl.IntVar(&f.predictionInterval, "prediction-interval", 0, "evaluate every N ms instead of on each pointer move (0 = on move)")
	fl.IntVar(&f.maxPrefetch, "max-prefetch", prefetch.DefaultMaxPrefetch, "links prefetched per pass (0 disables proximity)")
	fl.BoolVar(&f.debug, "debug", false, "log tracker activity in the browser console")
	fl.BoolVar(&f.mobileSupport, "mobile-support", false, "also evaluate on scroll and resize, around the viewport center")
	fl.Float64Var(&f.viewportMargin, "viewport-margin", prefetch.DefaultViewportMargin, "px around the viewport still considered visible in mobile mode")
	fl.BoolVar(&f.prefetchAllLinks, "prefetch-all", false, "prefetch every link after a delay")
	fl.IntVar(&f.prefetchAllLinksDelay, "prefetch-all-delay", int(prefetch.DefaultPrefetchAllLinksDelay.Milliseconds()), "delay in ms before prefetching all links")
	if withAutomatic {
		fl.BoolVar(&f.automaticPrefetch, "automatic-prefetch", false, "inject the tracker script into every page")
	}
}

// overrides returns the options for flags explicitly set on cmd.
func (f *optionFlags) overrides(cmd *cobra.Command) inject.Options {
	var o inject.Options
	changed := cmd.Flags().Changed

	if changed("threshold") {
		o.Threshold = prefetch.Ptr(f.threshold)
	}
	if changed("prediction-interval") {
		o.PredictionInterval = prefetch.Ptr(f.predictionInterval)
	}
	if changed("max-prefetch") {
		o.MaxPrefetch = prefetch.Ptr(f.maxPrefetch)
	}
	if changed("debug") {
		o.Debug = prefetch.Ptr(f.debug)
	}
	if changed("mobile-support") {
		o.MobileSupport = prefetch.Ptr(f.mobileSupport)
	}
	if changed("viewport-margin") {
		o.ViewportMargin = prefetch.Ptr(f.viewportMargin)
	}
	if changed("prefetch-all") {
		o.PrefetchAllLinks = prefetch.Ptr(f.prefetchAllLinks)
	}
	if changed("prefetch-all-delay") {
		o.PrefetchAllLinksDelay = prefetch.Ptr(f.prefetchAllLinksDelay)
	}
	if cmd.Flags().Lookup("automatic-prefetch") != nil && changed("automatic-prefetch") {
		o.AutomaticPrefetch = prefetch.Ptr(f.automaticPrefetch)
	}
	return o
}

// load reads the config file, if any, and layers the set flags over it.
// Without --config, proxprefetch.* in dir is used when present.
func (f *optionFlags) load(cmd *cobra.Command, dir string) (inject.Options, error) {
	path := f.configPath
	if path == "" {
		path = config.Find(dir)
	}

	var base inject.Options
	if path != "" {
		var err error
		if base, err = config.Load(path); err != nil {
			return inject.Options{}, err
		}
		loggerFromContext(cmd.Context()).Debug("loaded options", "file", path)
	}
	return base.Merge(f.overrides(cmd)), nil
}
