package build

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxprefetch/pkg/buildinfo"
	"github.com/matzehuels/proxprefetch/pkg/cache"
	"github.com/matzehuels/proxprefetch/pkg/inject"
	"github.com/matzehuels/proxprefetch/pkg/observability"
)

// Runner transforms pages with caching. Both the CLI build and the dev
// server use it.
//
// The Runner holds no per-run state, so several goroutines may share one.
type Runner struct {
	Plugin *inject.Plugin
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	configHash string
}

// NewRunner creates a runner for plugin.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(plugin *inject.Plugin, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Plugin:     plugin,
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		configHash: ConfigHash(plugin.Config()),
	}
}

// ConfigHash identifies a plugin configuration and the script version it
// renders. Pages transformed under different hashes never share a cache
// entry.
func ConfigHash(cfg inject.Config) string {
	data, _ := json.Marshal(struct {
		Config  inject.Config
		Version string
	}{cfg, buildinfo.Version})
	return cache.Hash(data)
}

// cachedResult is the cache encoding of an inject.Result.
type cachedResult struct {
	HTML     []byte `json:"html"`
	Marked   int    `json:"marked"`
	Injected bool   `json:"injected"`
}

// TransformWithCacheInfo transforms src, consulting the cache first unless
// refresh is set. It reports whether the result came from the cache.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, name string, src []byte, refresh bool) (*inject.Result, bool, error) {
	key := r.Keyer.TransformKey(r.configHash, cache.Hash(src))

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var c cachedResult
			if err := json.Unmarshal(data, &c); err == nil {
				return &inject.Result{HTML: c.HTML, Marked: c.Marked, Injected: c.Injected}, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "file", name, "error", err)
		}
	}

	start := time.Now()
	observability.Transform().OnTransformStart(ctx, name)
	res, err := r.Plugin.Transform(src)
	if err != nil {
		observability.Transform().OnTransformComplete(ctx, name, false, time.Since(start), err)
		return nil, false, err
	}
	observability.Transform().OnTransformComplete(ctx, name, res.Injected, time.Since(start), nil)

	if data, err := json.Marshal(cachedResult{HTML: res.HTML, Marked: res.Marked, Injected: res.Injected}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLTransform); err != nil {
			r.Logger.Warn("cache write failed", "file", name, "error", err)
		}
	}
	return res, false, nil
}

// Transform is a convenience wrapper that calls TransformWithCacheInfo and
// returns only the page.
func (r *Runner) Transform(ctx context.Context, name string, src []byte) ([]byte, error) {
	res, _, err := r.TransformWithCacheInfo(ctx, name, src, false)
	if err != nil {
		return nil, err
	}
	return res.HTML, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
