package gap

import (
	"sort"

	"github.com/henderiw/rxcore/pkg/mapping"
)

// Manager tracks the reference positions in front of which reads carry
// inserted bases. Each such position widens the rendered coordinate space by
// the widest insertion found there.
type Manager struct {
	gaps map[int]int
}

func NewManager() *Manager {
	return &Manager{gaps: map[int]int{}}
}

// AddGapsAt records an insertion of n bases in front of pos, the widest
// insertion per position wins.
func (r *Manager) AddGapsAt(pos, n int) {
	if n > r.gaps[pos] {
		r.gaps[pos] = n
	}
}

func (r *Manager) AddMapping(m *mapping.Mapping) {
	for pos, n := range m.GapWidths() {
		r.AddGapsAt(pos, n)
	}
}

func (r *Manager) GapsAt(pos int) int { return r.gaps[pos] }

func (r *Manager) HasGapsAt(pos int) bool { return r.gaps[pos] > 0 }

// Positions returns the positions with gaps in ascending order.
func (r *Manager) Positions() []int {
	out := make([]int, 0, len(r.gaps))
	for pos := range r.gaps {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// TotalGapsBetween sums the gap widths in front of all positions in
// [from, to).
func (r *Manager) TotalGapsBetween(from, to int) int {
	total := 0
	for pos, n := range r.gaps {
		if from <= pos && pos < to {
			total += n
		}
	}
	return total
}

// RevisedStop returns the last reference position that still fits into the
// columns of [absStart, absStop] once the gap columns are drawn. The stop is
// walked down one base at a time by the gaps met from absStart on. The
// result is never smaller than absStart.
func (r *Manager) RevisedStop(absStart, absStop int) int {
	stop := absStop
	for pos := absStart; pos <= stop; pos++ {
		stop -= r.gaps[pos]
	}
	return max(stop, absStart)
}
