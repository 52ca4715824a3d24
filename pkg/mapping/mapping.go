package mapping

import (
	"fmt"
	"sort"

	"github.com/henderiw/rxcore/pkg/classification"
)

// DeletionBase marks a Diff where the read has no base, a gap in the read.
const DeletionBase = '-'

// Mapping is one aligned read on the reference. Start and Stop are 0-based
// and inclusive.
type Mapping struct {
	ID    int64
	Start int
	Stop  int
	Fwd   bool
	Class classification.Class
	// Count is the number of replicates collapsed into this mapping.
	Count int
	Diffs []Diff
	Gaps  []ReferenceGap
}

// Diff is a base of the read that differs from the reference at Pos.
type Diff struct {
	Pos  int
	Base byte
}

// ReferenceGap is a base inserted into the read before reference position
// Pos. Order is the index of the base within the insertion.
type ReferenceGap struct {
	Pos   int
	Order int
	Base  byte
}

func (r *Mapping) String() string {
	strand := "+"
	if !r.Fwd {
		strand = "-"
	}
	return fmt.Sprintf("mapping %d %d-%d %s %s", r.ID, r.Start, r.Stop, strand, r.Class)
}

func (r *Mapping) Len() int { return r.Stop - r.Start + 1 }

func (r *Mapping) IsPerfect() bool { return len(r.Diffs) == 0 && len(r.Gaps) == 0 }

// Overlaps returns whether the mapping covers any position of [start, stop].
func (r *Mapping) Overlaps(start, stop int) bool {
	return r.Start <= stop && start <= r.Stop
}

// Replicates returns Count, a mapping always stands for at least one read.
func (r *Mapping) Replicates() int {
	if r.Count < 1 {
		return 1
	}
	return r.Count
}

// IsDeleted returns whether the read has no base at reference position pos.
func (r *Mapping) IsDeleted(pos int) bool {
	for _, d := range r.Diffs {
		if d.Pos == pos && d.Base == DeletionBase {
			return true
		}
	}
	return false
}

// GapWidths returns the insertion width per reference position.
func (r *Mapping) GapWidths() map[int]int {
	widths := map[int]int{}
	for _, g := range r.Gaps {
		if g.Order+1 > widths[g.Pos] {
			widths[g.Pos] = g.Order + 1
		}
	}
	return widths
}

func (r *Mapping) gapBases() map[int][]byte {
	byPos := map[int][]ReferenceGap{}
	for _, g := range r.Gaps {
		byPos[g.Pos] = append(byPos[g.Pos], g)
	}
	bases := make(map[int][]byte, len(byPos))
	for pos, gaps := range byPos {
		sort.Slice(gaps, func(i, j int) bool { return gaps[i].Order < gaps[j].Order })
		b := make([]byte, 0, len(gaps))
		for _, g := range gaps {
			b = append(b, g.Base)
		}
		bases[pos] = b
	}
	return bases
}
