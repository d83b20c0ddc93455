package build

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/proxprefetch/pkg/errors"
)

// FileResult describes one page of a build.
type FileResult struct {
	Path     string // relative to Options.Dir, slash-separated
	Marked   int
	Injected bool
	Changed  bool // output differs from input
	CacheHit bool
	Duration time.Duration
	Err      error
}

// Stats summarizes a build.
type Stats struct {
	Files     int
	Changed   int
	Injected  int
	Marked    int
	CacheHits int
	Failed    int
	Duration  time.Duration
}

// Report is the outcome of Build.
type Report struct {
	RunID  string
	DryRun bool
	Files  []FileResult // sorted by Path
	Stats  Stats
}

// Build transforms every page below opts.Dir and, unless DryRun is set,
// writes changed pages back in place. Per-file failures are collected in
// the report; the returned error is non-nil only for invalid options,
// a failed directory walk, cancellation, or when any file failed.
func (r *Runner) Build(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := r.Logger.With("run", report.RunID[:8])

	paths, err := collect(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("collected pages", "dir", opts.Dir, "count", len(paths))

	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.buildFile(gctx, opts, rel)
			results[i] = res
			if res.Err != nil {
				logger.Warn("transform failed", "file", rel, "error", res.Err)
			} else {
				logger.Debug("transformed", "file", rel, "marked", res.Marked,
					"injected", res.Injected, "cached", res.CacheHit, "duration", res.Duration)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Files = results
	for _, f := range results {
		report.Stats.Files++
		if f.Err != nil {
			report.Stats.Failed++
			continue
		}
		if f.Changed {
			report.Stats.Changed++
		}
		if f.Injected {
			report.Stats.Injected++
		}
		if f.CacheHit {
			report.Stats.CacheHits++
		}
		report.Stats.Marked += f.Marked
	}
	report.Stats.Duration = time.Since(start)

	logger.Info("build complete",
		"files", report.Stats.Files,
		"changed", report.Stats.Changed,
		"injected", report.Stats.Injected,
		"failed", report.Stats.Failed,
		"duration", report.Stats.Duration)

	if report.Stats.Failed > 0 {
		return report, errors.New(errors.ErrCodeInternal, "%d of %d files failed", report.Stats.Failed, report.Stats.Files)
	}
	return report, nil
}

func (r *Runner) buildFile(ctx context.Context, opts Options, rel string) FileResult {
	start := time.Now()
	res := FileResult{Path: rel}
	path := filepath.Join(opts.Dir, filepath.FromSlash(rel))

	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}
	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	out, hit, err := r.TransformWithCacheInfo(ctx, rel, src, opts.Refresh)
	if err != nil {
		res.Err = err
		return res
	}
	res.Marked = out.Marked
	res.Injected = out.Injected
	res.CacheHit = hit
	res.Changed = !bytes.Equal(src, out.HTML)

	if res.Changed && !opts.DryRun {
		if err := os.WriteFile(path, out.HTML, info.Mode().Perm()); err != nil {
			res.Err = err
		}
	}
	res.Duration = time.Since(start)
	return res
}

// collect returns the slash-separated relative paths of all pages below
// opts.Dir in lexical order.
func collect(opts Options) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() || !opts.matches(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(opts.Dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", opts.Dir)
	}
	sort.Strings(paths)
	return paths, nil
}
