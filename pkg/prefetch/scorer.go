package prefetch

import (
	"sort"

	"github.com/matzehuels/proxprefetch/pkg/geom"
)

// Scored is a candidate with its distance from the tracked position.
type Scored struct {
	Candidate
	Distance float64
}

// Score returns the candidates strictly closer than threshold to pos,
// sorted by ascending distance. Equal distances keep document order.
func Score(pos geom.Point, cands []Candidate, threshold float64) []Scored {
	var out []Scored
	for _, c := range cands {
		d := geom.Distance(pos, c.Center)
		if d < threshold {
			out = append(out, Scored{Candidate: c, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Select scores cands and keeps at most max of the closest.
// A max of zero or less selects nothing.
func Select(pos geom.Point, cands []Candidate, threshold float64, max int) []Scored {
	if max <= 0 || len(cands) == 0 {
		return nil
	}
	scored := Score(pos, cands, threshold)
	if len(scored) > max {
		scored = scored[:max]
	}
	return scored
}
