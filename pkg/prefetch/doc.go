// Package prefetch implements proximity-based route prefetching.
//
// When the pointer (or, on touch devices, the viewport) approaches a
// navigable link, a [Tracker] asks its host [Document] to insert a
// `<link rel="prefetch" as="document">` hint for that link before the user
// commits to the navigation.
//
// # Stages
//
// Every evaluation pass composes four stages:
//
//  1. Position tracking: the last pointer position, or the viewport center
//     when mobile support is on and the viewport moved.
//  2. Candidate discovery: [Discover] scans the document's anchors and keeps
//     the ones with a same-document-navigable href (see [Eligible]).
//  3. Proximity scoring: [Select] keeps candidates strictly closer than the
//     threshold, sorted by distance, capped at MaxPrefetch.
//  4. Dispatch: a [Dispatcher] inserts one hint per href for the lifetime of
//     the tracker. Failures are isolated per candidate.
//
// Passes are rate limited by a [Gate] with a hard floor of
// [MinEvaluationInterval]. Prefetch-all mode bypasses scoring and the cap
// but still goes through the dedup set.
//
// # Hosts
//
// The package never touches a real DOM. A host adapts its environment to
// [Document] and feeds events to the tracker, either by calling
// [Tracker.PointerMove], [Tracker.ViewportChange] and [Tracker.Tick]
// directly from its own event loop, or by handing a channel of [Event]
// values to [Tracker.Run], which also owns the interval ticker and the
// prefetch-all timer and releases both on return.
//
// # Usage
//
//	cfg, err := prefetch.Resolve(prefetch.Options{
//	    Threshold:   prefetch.Ptr(150.0),
//	    MaxPrefetch: prefetch.Ptr(2),
//	})
//	if err != nil {
//	    return err
//	}
//	t := prefetch.New(doc, cfg)
//	go t.Run(ctx, events)
package prefetch
