// Package build rewrites the HTML files of a static build output for
// proximity prefetching.
//
// A [Runner] wraps an [inject.Plugin] with a cache keyed by page content and
// plugin configuration. The dev server uses [Runner.Transform] per request;
// the CLI uses [Runner.Build] to rewrite a whole output directory:
//
//	plugin, _ := inject.New(opts)
//	runner := build.NewRunner(plugin, cache, nil, logger)
//	report, err := runner.Build(ctx, build.Options{Dir: "dist"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Stats.Injected, "pages injected")
//
// Files are transformed concurrently, bounded by [Options.Concurrency]. A
// failing file does not stop the others; it is reported in its
// [FileResult] and counted in [Stats.Failed].
package build
