// Package cache stores transformed pages so unchanged input is not rewritten
// twice.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [MemoryCache]: per-process, used by the dev server
//   - [FileCache]: under the XDG cache directory, used by the CLI build
//   - [RedisCache]: shared between dev server instances
//
// Keys come from a [Keyer]; a transform key covers both the plugin
// configuration and the page content, so a config change never serves a
// stale page.
package cache

import (
	"context"
	"time"
)

// TTLTransform bounds how long a transformed page is kept. Keys already
// change with content and configuration, so this only limits growth.
const TTLTransform = 7 * 24 * time.Hour

// Cache is a byte store with optional per-entry TTL.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// TransformKey identifies the output of transforming content (by hash)
	// with a plugin configuration (by hash).
	TransformKey(configHash, contentHash string) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TransformKey returns "transform:<sha256(configHash, contentHash)>".
func (DefaultKeyer) TransformKey(configHash, contentHash string) string {
	return hashKey("transform", configHash, contentHash)
}
