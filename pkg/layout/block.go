package layout

import (
	"fmt"
	"iter"

	"github.com/biogo/store/llrb"
	"github.com/henderiw/rxcore/pkg/gap"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
)

// Block is a mapping or read pair clipped to the visible window. AbsStart
// and AbsStop are inclusive reference positions.
type Block struct {
	absStart int
	absStop  int
	uid      int
	mapping  *mapping.Mapping
	pair     *readpair.ReadPair
	gaps     *gap.Manager
}

func (r *Block) String() string {
	return fmt.Sprintf("block %d-%d", r.absStart, r.absStop)
}

func (r *Block) AbsStart() int { return r.absStart }
func (r *Block) AbsStop() int  { return r.absStop }

// Mapping returns the mapping of the block, nil for read pair blocks.
func (r *Block) Mapping() *mapping.Mapping { return r.mapping }

// ReadPair returns the read pair of the block, nil for mapping blocks.
func (r *Block) ReadPair() *readpair.ReadPair { return r.pair }

func (r *Block) Fwd() bool {
	if r.pair != nil {
		return r.pair.Fwd()
	}
	return r.mapping.Fwd
}

// Overlaps returns whether the inclusive spans of r and other intersect.
func (r *Block) Overlaps(other *Block) bool {
	return r.absStart <= other.absStop && other.absStart <= r.absStop
}

// Compare orders blocks by start, blocks added first sort first.
func (r *Block) Compare(c llrb.Comparable) int {
	o := c.(*Block)
	switch {
	case r.absStart < o.absStart:
		return -1
	case r.absStart > o.absStart:
		return 1
	case r.uid < o.uid:
		return -1
	case r.uid > o.uid:
		return 1
	}
	return 0
}

// LeadingGaps returns the number of insertion columns the block draws in
// front of AbsStart. Only blocks cut at the window start cover them.
func (r *Block) LeadingGaps() int {
	var start int
	if r.pair != nil {
		start = r.pair.Start()
	} else {
		start = r.mapping.Start
	}
	if start >= r.absStart || r.gaps == nil {
		return 0
	}
	return r.gaps.GapsAt(r.absStart)
}

// Bricks iterates over the rendered columns of the block.
func (r *Block) Bricks() iter.Seq[mapping.Brick] {
	if r.pair == nil {
		return r.mapping.Bricks(r.absStart, r.absStop, r.gaps)
	}
	return r.pairBricks
}

func (r *Block) pairBricks(yield func(mapping.Brick) bool) {
	gapColumns := func(pos int) bool {
		if pos < r.absStart || (pos == r.absStart && r.pair.Start() >= r.absStart) || r.gaps == nil {
			return true
		}
		for i := 0; i < r.gaps.GapsAt(pos); i++ {
			if !yield(mapping.Brick{Kind: mapping.ForeignGenomeGap, Pos: pos}) {
				return false
			}
		}
		return true
	}

	pos := r.absStart
	for _, m := range r.pair.Mappings() {
		from := max(m.Start, pos)
		to := min(m.Stop, r.absStop)
		for ; pos < from && pos <= r.absStop; pos++ {
			if !gapColumns(pos) || !yield(mapping.Brick{Kind: mapping.Link, Pos: pos}) {
				return
			}
		}
		if from > to {
			continue
		}
		// m.Bricks draws the columns in front of from itself when m starts further left
		if from == m.Start && !gapColumns(from) {
			return
		}
		for b := range m.Bricks(from, to, r.gaps) {
			if !yield(b) {
				return
			}
		}
		pos = to + 1
	}
}
