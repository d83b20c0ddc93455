package prefetch

// PrefetchedSet records hrefs that already received a hint. It only grows:
// an href is dispatched at most once for the lifetime of its owner.
type PrefetchedSet struct {
	m     map[string]struct{}
	order []string
}

// NewPrefetchedSet returns an empty set.
func NewPrefetchedSet() *PrefetchedSet {
	return &PrefetchedSet{m: make(map[string]struct{})}
}

// Has reports whether href was recorded.
func (s *PrefetchedSet) Has(href string) bool {
	_, ok := s.m[href]
	return ok
}

// Add records href and reports whether it was new.
func (s *PrefetchedSet) Add(href string) bool {
	if _, ok := s.m[href]; ok {
		return false
	}
	s.m[href] = struct{}{}
	s.order = append(s.order, href)
	return true
}

// Len returns the number of recorded hrefs.
func (s *PrefetchedSet) Len() int { return len(s.order) }

// Hrefs returns the recorded hrefs in insertion order.
func (s *PrefetchedSet) Hrefs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
