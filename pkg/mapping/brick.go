package mapping

import (
	"iter"
	"unicode"
)

type BrickKind int

const (
	Match BrickKind = iota
	Mismatch
	// ReadGap is a reference base missing in the read.
	ReadGap
	// GenomeGap is a read base inserted between reference positions.
	GenomeGap
	// ForeignGenomeGap is an insertion column opened by another read.
	ForeignGenomeGap
	// Link is a column between the two mates of a read pair.
	Link
)

func (r BrickKind) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case ReadGap:
		return "read-gap"
	case GenomeGap:
		return "genome-gap"
	case ForeignGenomeGap:
		return "foreign-genome-gap"
	case Link:
		return "link"
	}
	return "unknown"
}

// Brick describes one rendered column of a mapping. Pos is the reference
// position, gap columns carry the position they are inserted before.
type Brick struct {
	Kind BrickKind
	Pos  int
	Base byte
}

// Rune returns the character used to draw the brick.
func (r Brick) Rune() rune {
	switch r.Kind {
	case Match:
		return '='
	case Mismatch:
		return unicode.ToUpper(rune(r.Base))
	case ReadGap:
		return '-'
	case GenomeGap:
		return unicode.ToLower(rune(r.Base))
	case Link:
		return '.'
	default:
		return ' '
	}
}

// GapCounter reports the width of the insertion columns in front of a
// reference position.
type GapCounter interface {
	GapsAt(pos int) int
}

// Bricks iterates over the columns of the mapping between the reference
// positions from and to, both inclusive. When gaps is not nil every
// insertion column it reports is emitted, columns the mapping does not fill
// itself become ForeignGenomeGap bricks. Insertion columns in front of the
// first emitted position are only emitted when the mapping starts further
// left.
func (r *Mapping) Bricks(from, to int, gaps GapCounter) iter.Seq[Brick] {
	from = max(from, r.Start)
	to = min(to, r.Stop)

	return func(yield func(Brick) bool) {
		if from > to {
			return
		}
		diffs := make(map[int]byte, len(r.Diffs))
		for _, d := range r.Diffs {
			diffs[d.Pos] = d.Base
		}
		inserted := r.gapBases()

		for pos := from; pos <= to; pos++ {
			if pos > r.Start {
				own := inserted[pos]
				width := len(own)
				if gaps != nil {
					width = max(width, gaps.GapsAt(pos))
				}
				for i := 0; i < width; i++ {
					b := Brick{Kind: ForeignGenomeGap, Pos: pos}
					if i < len(own) {
						b = Brick{Kind: GenomeGap, Pos: pos, Base: own[i]}
					}
					if !yield(b) {
						return
					}
				}
			}

			b := Brick{Kind: Match, Pos: pos}
			if base, ok := diffs[pos]; ok {
				if base == DeletionBase {
					b = Brick{Kind: ReadGap, Pos: pos, Base: base}
				} else {
					b = Brick{Kind: Mismatch, Pos: pos, Base: base}
				}
			}
			if !yield(b) {
				return
			}
		}
	}
}
