package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/build"
	"github.com/matzehuels/proxprefetch/pkg/errors"
	"github.com/matzehuels/proxprefetch/pkg/watch"
)

// injectOpts holds the command-line flags for the inject command.
type injectOpts struct {
	options     optionFlags
	concurrency int
	dryRun      bool
	refresh     bool
	noCache     bool
	watch       bool
}

// injectCommand rewrites a build output directory in place.
func (c *CLI) injectCommand() *cobra.Command {
	var opts injectOpts

	cmd := &cobra.Command{
		Use:   "inject [dir]",
		Short: "Rewrite the HTML pages of a build output directory",
		Long: `Rewrite every HTML page below dir (default: dist): modulepreload links are
marked with data-prefetch="true" and, with --automatic-prefetch, the tracker
script is inserted before </head>. Pages that were already rewritten are left
unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "dist"
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runInject(cmd, dir, &opts)
		},
	}

	opts.options.register(cmd, true)
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", build.DefaultConcurrency, "pages transformed in parallel")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "report changes without writing files")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the transform cache")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild when files change")

	return cmd
}

func (c *CLI) runInject(cmd *cobra.Command, dir string, opts *injectOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	pluginOpts, err := opts.options.load(cmd, ".")
	if err != nil {
		return err
	}
	plugin, err := c.newPlugin(pluginOpts)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(plugin, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	buildOpts := build.Options{
		Dir:         dir,
		Concurrency: opts.concurrency,
		DryRun:      opts.dryRun,
		Refresh:     opts.refresh,
	}

	if err := c.buildOnce(ctx, runner, buildOpts); err != nil && !opts.watch {
		return err
	}
	if !opts.watch {
		return nil
	}

	w, err := watch.New(dir, watch.Options{
		Logger: logger,
		Filter: func(p string) bool {
			ext := filepath.Ext(p)
			return ext == ".html" || ext == ".htm"
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	printInfo("Watching %s", StyleHighlight.Render(w.Root()))
	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		logger.Debug("rebuilding", "changed", len(paths))
		return c.buildOnce(ctx, runner, buildOpts)
	})
}

func (c *CLI) buildOnce(ctx context.Context, runner *build.Runner, opts build.Options) error {
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, os.Stderr, "Rewriting pages...")
	if c.Logger.GetLevel() <= LogDebug {
		spinner.Quiet()
	}
	spinner.Start()
	report, err := runner.Build(ctx, opts)
	spinner.Stop()

	if report == nil {
		return err
	}
	if report.Stats.Files == 0 {
		printWarning("No HTML pages found in %s", opts.Dir)
		return nil
	}
	printBuildReport(report)
	if err != nil {
		for _, f := range report.Files {
			if f.Err != nil {
				printError("%s: %s", f.Path, errors.UserMessage(f.Err))
			}
		}
		return err
	}
	prog.done(fmt.Sprintf("Rewrote %d of %d pages", report.Stats.Changed, report.Stats.Files))
	if report.DryRun && report.Stats.Changed > 0 {
		printNextStep("Apply the changes", appName+" inject "+opts.Dir)
	}
	return nil
}
