package build

import (
	"os"
	"strings"

	"github.com/matzehuels/proxprefetch/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConcurrency bounds the number of files transformed at once.
	DefaultConcurrency = 8

	// MaxConcurrency is the upper bound accepted for Options.Concurrency.
	MaxConcurrency = 64
)

// DefaultExtensions are the file extensions treated as HTML pages.
var DefaultExtensions = []string{".html", ".htm"}

// Options configures a build run.
type Options struct {
	// Dir is the build output directory to rewrite in place.
	Dir string

	// Concurrency bounds parallel transforms (default DefaultConcurrency).
	Concurrency int

	// Extensions selects the pages to rewrite (default DefaultExtensions).
	Extensions []string

	// DryRun transforms pages and reports the result without writing.
	DryRun bool

	// Refresh skips cache reads; results are still written to the cache.
	Refresh bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Dir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "build directory is required")
	}
	info, err := os.Stat(o.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "build directory %s", o.Dir)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "build directory %s", o.Dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", o.Dir)
	}

	switch {
	case o.Concurrency == 0:
		o.Concurrency = DefaultConcurrency
	case o.Concurrency < 0 || o.Concurrency > MaxConcurrency:
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be in 1..%d, got %d", MaxConcurrency, o.Concurrency)
	}

	exts := o.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	o.Extensions = make([]string, 0, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.Extensions = append(o.Extensions, strings.ToLower(ext))
	}
	return nil
}

func (o *Options) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range o.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
