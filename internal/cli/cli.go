package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/build"
	"github.com/matzehuels/proxprefetch/pkg/buildinfo"
	"github.com/matzehuels/proxprefetch/pkg/cache"
	"github.com/matzehuels/proxprefetch/pkg/inject"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "proxprefetch"

	// memoryCacheEntries bounds the dev server's in-process page cache.
	memoryCacheEntries = 256
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Proximity-based route prefetching for static single-page apps",
		Long: `proxprefetch prefetches the routes a visitor is about to open: links near the
pointer get a <link rel="prefetch"> hint before they are clicked.

It rewrites a build output directory (inject), serves one with the rewrite
applied on the fly (serve), prints the browser script (script), and replays
pointer traces against the heuristic (simulate, play).`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.injectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.scriptCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newPlugin resolves the plugin from options, logging through the CLI logger.
func (c *CLI) newPlugin(opts inject.Options) (*inject.Plugin, error) {
	p, err := inject.New(opts, inject.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	p.ConfigResolved()
	return p, nil
}

// newRunner creates a build runner backed by the file cache.
func (c *CLI) newRunner(plugin *inject.Plugin, noCache bool) (*build.Runner, error) {
	fc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return build.NewRunner(plugin, cache.Instrumented(fc, "transform"), nil, c.Logger), nil
}

// newServeRunner creates a runner for the dev server: Redis when redisURL is
// set, otherwise an in-process cache.
func (c *CLI) newServeRunner(ctx context.Context, plugin *inject.Plugin, noCache bool, redisURL string) (*build.Runner, error) {
	var backend cache.Cache
	switch {
	case noCache:
		backend = cache.NewNullCache()
	case redisURL != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{URL: redisURL})
		if err != nil {
			return nil, err
		}
		backend = rc
	default:
		backend = cache.NewMemoryCache(memoryCacheEntries)
	}
	return build.NewRunner(plugin, cache.Instrumented(backend, "transform"), nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/proxprefetch/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
