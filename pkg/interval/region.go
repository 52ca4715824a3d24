package interval

import (
	"fmt"
	"strings"
)

// Region is an interval on a named reference sequence.
type Region struct {
	Ref string
	Interval
}

// ParseRegion parses "ref:start-end" where start and end are 1-based and
// inclusive, the way genome browsers print them. "ref" alone is not accepted.
func ParseRegion(s string) (Region, error) {
	c := strings.LastIndexByte(s, ':')
	if c <= 0 {
		return Region{}, fmt.Errorf("no reference name in region %q", s)
	}
	iv, err := Parse(strings.ReplaceAll(s[c+1:], ",", ""))
	if err != nil {
		return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
	}
	if iv.Start < 1 {
		return Region{}, fmt.Errorf("invalid region %q: positions are 1-based", s)
	}
	return Region{Ref: s[:c], Interval: Interval{Start: iv.Start - 1, End: iv.End}}, nil
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Ref, r.Start+1, r.End)
}

// First returns the first position of the region, 0-based.
func (r Region) First() int { return r.Start }

// Last returns the last position of the region, 0-based and inclusive.
func (r Region) Last() int { return r.End - 1 }
