package readpair

import (
	"fmt"

	"github.com/henderiw/rxcore/pkg/mapping"
)

// Type classifies the relation of the two mates of a fragment.
type Type int

const (
	PerfectPair Type = iota
	PerfectUniquePair
	// DistortedPair mates are mapped with a wrong distance or orientation.
	DistortedPair
	DistortedUniquePair
	// UnpairedPair mappings have no mate mapping on the reference.
	UnpairedPair
	UnpairedUniquePair
)

func (r Type) String() string {
	switch r {
	case PerfectPair:
		return "perfect"
	case PerfectUniquePair:
		return "perfect-unique"
	case DistortedPair:
		return "distorted"
	case DistortedUniquePair:
		return "distorted-unique"
	case UnpairedPair:
		return "unpaired"
	case UnpairedUniquePair:
		return "unpaired-unique"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

func (r Type) IsUnpaired() bool {
	return r == UnpairedPair || r == UnpairedUniquePair
}

func (r Type) IsUnique() bool {
	return r == PerfectUniquePair || r == DistortedUniquePair || r == UnpairedUniquePair
}

// ReadPair is one sequenced fragment built from up to two mappings.
type ReadPair struct {
	ID         int64
	Type       Type
	Mapping1ID int64
	Mapping2ID int64
	Replicates int
	// Mapping1 is the first mapping seen, Mapping2 its mate once known.
	Mapping1 *mapping.Mapping
	Mapping2 *mapping.Mapping
	// BothVisible is false when Mapping2 lies outside the requested window.
	BothVisible bool
}

func (r *ReadPair) String() string {
	return fmt.Sprintf("pair %d %s %d-%d", r.ID, r.Type, r.Start(), r.Stop())
}

func (r *ReadPair) IsComplete() bool { return r.Mapping1 != nil && r.Mapping2 != nil }

func (r *ReadPair) Start() int {
	start := r.Mapping1.Start
	if r.Mapping2 != nil && r.Mapping2.Start < start {
		start = r.Mapping2.Start
	}
	return start
}

func (r *ReadPair) Stop() int {
	stop := r.Mapping1.Stop
	if r.Mapping2 != nil && r.Mapping2.Stop > stop {
		stop = r.Mapping2.Stop
	}
	return stop
}

// Fwd returns the strand of the first mapping.
func (r *ReadPair) Fwd() bool { return r.Mapping1.Fwd }

// Mappings returns the mappings of the pair ordered by start.
func (r *ReadPair) Mappings() []*mapping.Mapping {
	if r.Mapping2 == nil {
		return []*mapping.Mapping{r.Mapping1}
	}
	if r.Mapping2.Start < r.Mapping1.Start {
		return []*mapping.Mapping{r.Mapping2, r.Mapping1}
	}
	return []*mapping.Mapping{r.Mapping1, r.Mapping2}
}

func sameEnd(a, b *mapping.Mapping) bool {
	return a.Start == b.Start && a.Fwd == b.Fwd
}
