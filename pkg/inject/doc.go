// Package inject is the build-time side of proximity prefetching.
//
// A [Plugin] resolves its options once (merging the caller's options over
// the defaults and honoring the PPF_DEBUG environment switch) and then
// rewrites HTML pages:
//
//   - every `<link rel="modulepreload">` tag gets a data-prefetch="true"
//     attribute;
//   - when AutomaticPrefetch is on, a self-contained tracker script rendered
//     from the typed configuration is inserted right before the first
//     `</head>`.
//
// The script is produced by [Script] from an embedded html/template, so the
// configuration is written into the page as escaped JS literals rather than
// by string concatenation.
//
//	p, err := inject.New(inject.Options{AutomaticPrefetch: prefetch.Ptr(true)})
//	if err != nil {
//	    return err
//	}
//	out, err := p.TransformIndexHTML(page)
package inject
