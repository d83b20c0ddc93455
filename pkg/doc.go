// Package pkg provides the libraries behind proxprefetch, proximity-based
// route prefetching for static single-page apps.
//
// # Overview
//
// A page tracks the pointer (or, on touch devices, the viewport center) and
// inserts <link rel="prefetch"> hints for the routes whose anchors come
// within a distance threshold, before the visitor clicks them. The pkg
// directory is organized into three areas:
//
//  1. [prefetch] - The tracker: scoring, throttling, deduplication, dispatch
//  2. [inject] - Build integration: HTML rewriting and the browser script
//  3. [build], [server], [watch] - Whole-directory rewriting, a dev server and
//     file watching, all backed by [cache]
//
// # Architecture
//
// The typical data flow for a production build:
//
//	proxprefetch.toml + flags
//	         ↓
//	    [config] package (decode options)
//	         ↓
//	    [inject] package (resolve config, render script, rewrite HTML)
//	         ↓
//	    [build] package (walk dist/, cache transforms, write pages)
//
// The [sim] package drives a real [prefetch.Tracker] against an in-memory
// page on a virtual clock, so the heuristic can be tested and tuned without a
// browser.
//
// # Quick Start
//
// Track a document and react to pointer moves:
//
//	cfg, _ := prefetch.Resolve(prefetch.Options{Threshold: prefetch.Ptr(150.0)})
//	t := prefetch.New(doc, cfg)
//	t.PointerMove(geom.Point{X: 120, Y: 48})
//
// Rewrite a page:
//
//	p, _ := inject.New(inject.Options{AutomaticPrefetch: prefetch.Ptr(true)})
//	out, _ := p.TransformIndexHTML(page)
//
// # Main Packages
//
// [geom] - Points, rectangles and Euclidean distance.
//
// [errors] - Coded errors with user-facing messages.
//
// [observability] - Hooks for tracker passes, page transforms and cache use.
//
// [cache] - File, memory, Redis and null caches behind one interface.
//
// [config] - Options files in TOML, YAML or JSON.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/prefetch/...     # Specific package
//
// [prefetch]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/prefetch
// [prefetch.Tracker]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/prefetch#Tracker
// [inject]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/inject
// [build]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/build
// [server]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/server
// [watch]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/watch
// [cache]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/config
// [sim]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/sim
// [geom]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/geom
// [errors]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/proxprefetch/pkg/observability
package pkg
