package interval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
)

// Interval is a half-open [Start, End) range over genomic positions.
type Interval struct {
	Start int
	End   int
}

func New(start, end int) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.IsValid() {
		return Interval{}, fmt.Errorf("invalid interval %d-%d, start is bigger then end", start, end)
	}
	return iv, nil
}

// From builds an interval without validation.
func From(start, end int) Interval {
	return Interval{Start: start, End: end}
}

// Parse parses a "start-end" string.
func Parse(s string) (Interval, error) {
	h := strings.IndexByte(s, '-')
	if h == -1 {
		return Interval{}, fmt.Errorf("no hyphen in interval %q", s)
	}
	from, to := s[:h], s[h+1:]
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return Interval{}, fmt.Errorf("invalid start %q in interval %q", from, s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return Interval{}, fmt.Errorf("invalid end %q in interval %q", to, s)
	}
	return New(start, end)
}

func (r Interval) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r Interval) IsValid() bool { return r.Start <= r.End }

func (r Interval) IsEmpty() bool { return r.Start >= r.End }

func (r Interval) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Start
}

// Contains returns whether pos lies within r.
func (r Interval) Contains(pos int) bool {
	return r.Start <= pos && pos < r.End
}

// Overlaps returns whether r and other share at least one position.
func (r Interval) Overlaps(other Interval) bool {
	return r.Start < other.End && other.Start < r.End
}

// Touches returns whether r ends exactly where other starts or vice versa.
func (r Interval) Touches(other Interval) bool {
	return r.End == other.Start || other.End == r.Start
}

// EntirelyBefore returns whether r lies entirely before other.
func (r Interval) EntirelyBefore(other Interval) bool {
	return r.End <= other.Start
}

// Covers returns whether other is entirely contained within r.
func (r Interval) Covers(other Interval) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r Interval) Intersect(other Interval) Interval {
	iv := Interval{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
	if iv.End < iv.Start {
		return Interval{Start: iv.Start, End: iv.Start}
	}
	return iv
}

func (r Interval) Less(other Interval) bool {
	if r.Start != other.Start {
		return r.Start < other.Start
	}
	return r.End < other.End
}

// Range returns the biogo range of r.
func (r Interval) Range() interval.IntRange {
	return interval.IntRange{Start: r.Start, End: r.End}
}

// Overlap implements interval.IntOverlapper for half-open ranges.
func (r Interval) Overlap(b interval.IntRange) bool {
	return r.End > b.Start && r.Start < b.End
}

// Merge returns the minimum and sorted set of intervals that cover rr.
// Touching intervals are merged as well as overlapping ones.
func Merge(rr []Interval) []Interval {
	switch len(rr) {
	case 0:
		return nil
	case 1:
		return []Interval{rr[0]}
	}

	sorted := make([]Interval, len(rr))
	copy(sorted, rr)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	out := make([]Interval, 1, len(sorted))
	out[0] = sorted[0]
	for _, r := range sorted[1:] {
		prev := &out[len(out)-1]
		switch {
		case prev.End < r.Start:
			// No overlap and not adjacent, no merging possible.
			//
			//   prev       r
			// s------e  s-----e
			out = append(out, r)
		case prev.End < r.End:
			// prev and r touch or partially overlap, extend prev.
			//
			//   prev
			// s------e
			//        s-----e
			//           r
			prev.End = r.End
		default:
			// r entirely contained in prev, nothing to do.
		}
	}
	return out
}
