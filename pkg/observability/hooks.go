// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about tracker passes, HTML transforms and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTrackerHooks(&myTrackerHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Transform().OnTransformStart(ctx, name)
//	// ... rewrite the page ...
//	observability.Transform().OnTransformComplete(ctx, name, injected, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Tracker Hooks
// =============================================================================

// TrackerHooks receives events from proximity trackers.
//
// Trackers run on a single goroutine and have no request context, so these
// hooks identify the emitting tracker by its instance id instead.
type TrackerHooks interface {
	// OnPass records a completed evaluation pass.
	OnPass(trackerID string, candidates, selected int, duration time.Duration)

	// OnThrottled records a pass skipped by the throttle gate.
	OnThrottled(trackerID string)

	// OnDispatch records a prefetch hint inserted for href.
	OnDispatch(trackerID, href string)

	// OnDispatchError records a hint that could not be created.
	OnDispatchError(trackerID, href string, err error)
}

// =============================================================================
// Transform Hooks
// =============================================================================

// TransformHooks receives events from HTML transformation (build and serve).
type TransformHooks interface {
	OnTransformStart(ctx context.Context, name string)
	OnTransformComplete(ctx context.Context, name string, injected bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTrackerHooks is a no-op implementation of TrackerHooks.
type NoopTrackerHooks struct{}

func (NoopTrackerHooks) OnPass(string, int, int, time.Duration) {}
func (NoopTrackerHooks) OnThrottled(string)                     {}
func (NoopTrackerHooks) OnDispatch(string, string)              {}
func (NoopTrackerHooks) OnDispatchError(string, string, error)  {}

// NoopTransformHooks is a no-op implementation of TransformHooks.
type NoopTransformHooks struct{}

func (NoopTransformHooks) OnTransformStart(context.Context, string) {}
func (NoopTransformHooks) OnTransformComplete(context.Context, string, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	trackerHooks   TrackerHooks   = NoopTrackerHooks{}
	transformHooks TransformHooks = NoopTransformHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetTrackerHooks registers custom tracker hooks.
// This should be called once at application startup before any tracker runs.
func SetTrackerHooks(h TrackerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		trackerHooks = h
	}
}

// SetTransformHooks registers custom transform hooks.
func SetTransformHooks(h TransformHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		transformHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Tracker returns the registered tracker hooks.
func Tracker() TrackerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return trackerHooks
}

// Transform returns the registered transform hooks.
func Transform() TransformHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return transformHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	trackerHooks = NoopTrackerHooks{}
	transformHooks = NoopTransformHooks{}
	cacheHooks = NoopCacheHooks{}
}
