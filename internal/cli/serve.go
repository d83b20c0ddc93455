package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	options optionFlags
	addr    string
	redis   string
	noCache bool
}

// serveCommand serves a build output directory with pages rewritten on the fly.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a build output directory with prefetching applied",
		Long: `Serve dir (default: dist) as a single-page app. HTML responses are rewritten
like inject does, without touching the files on disk. Unknown extensionless
paths fall back to index.html.

Health and resolved configuration are available under /_proxprefetch/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "dist"
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runServe(cmd, dir, &opts)
		},
	}

	opts.options.register(cmd, true)
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "share transformed pages through Redis (redis://host:port/db)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the transform cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, dir string, opts *serveOpts) error {
	ctx := cmd.Context()

	pluginOpts, err := opts.options.load(cmd, ".")
	if err != nil {
		return err
	}
	plugin, err := c.newPlugin(pluginOpts)
	if err != nil {
		return err
	}
	runner, err := c.newServeRunner(ctx, plugin, opts.noCache, opts.redis)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv, err := server.New(dir, runner, loggerFromContext(ctx))
	if err != nil {
		return err
	}

	printSuccess("Serving %s", StyleHighlight.Render(dir))
	printKeyValue("URL", StyleLink.Render("http://"+opts.addr))
	if opts.redis != "" {
		printKeyValue("Cache", "redis")
	}
	printDetail("Press Ctrl+C to stop")

	err = srv.ListenAndServe(ctx, opts.addr)
	if errors.Is(err, context.Canceled) {
		printNewline()
		printInfo("Server stopped")
		return nil
	}
	return err
}
