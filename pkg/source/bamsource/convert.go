package bamsource

import (
	"fmt"
	"strconv"

	"github.com/biogo/hts/sam"
	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
)

var (
	tagNM = sam.NewTag("NM")
	tagNH = sam.NewTag("NH")
	tagMD = sam.NewTag("MD")
)

// newMapping converts an aligned record. Mismatching bases are taken from the
// MD tag or from X operations of the CIGAR.
func newMapping(rec *sam.Record, id int64) (*mapping.Mapping, error) {
	m := &mapping.Mapping{
		ID:    id,
		Start: rec.Pos,
		Stop:  rec.End() - 1,
		Fwd:   rec.Flags&sam.Reverse == 0,
		Class: classify(rec),
		Count: 1,
	}
	if m.Stop < m.Start {
		return nil, fmt.Errorf("record %s has no aligned bases", rec.Name)
	}

	seq := rec.Seq.Expand()
	readBase := map[int]byte{}
	// reference positions described by the MD tag, in order
	var described []int
	var mismatched []mapping.Diff

	ref, query := rec.Pos, 0
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				if query+i < len(seq) {
					readBase[ref+i] = seq[query+i]
				}
				described = append(described, ref+i)
				if co.Type() == sam.CigarMismatch && query+i < len(seq) {
					mismatched = append(mismatched, mapping.Diff{Pos: ref + i, Base: seq[query+i]})
				}
			}
			ref += n
			query += n
		case sam.CigarInsertion:
			for i := 0; i < n && query+i < len(seq); i++ {
				m.Gaps = append(m.Gaps, mapping.ReferenceGap{Pos: ref, Order: i, Base: seq[query+i]})
			}
			query += n
		case sam.CigarDeletion:
			for i := 0; i < n; i++ {
				m.Diffs = append(m.Diffs, mapping.Diff{Pos: ref + i, Base: mapping.DeletionBase})
				described = append(described, ref+i)
			}
			ref += n
		case sam.CigarSkipped:
			ref += n
		case sam.CigarSoftClipped:
			query += n
		}
	}

	md, ok := auxString(rec, tagMD)
	if !ok {
		m.Diffs = append(m.Diffs, mismatched...)
		return m, nil
	}
	mismatches, err := parseMD(md)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	for _, idx := range mismatches {
		if idx >= len(described) {
			return nil, fmt.Errorf("record %s: MD tag %q is longer then the alignment", rec.Name, md)
		}
		pos := described[idx]
		if base, ok := readBase[pos]; ok {
			m.Diffs = append(m.Diffs, mapping.Diff{Pos: pos, Base: base})
		}
	}
	return m, nil
}

// parseMD returns the offsets of the mismatching bases within the aligned
// reference bases the tag describes. Deleted bases advance the offset.
func parseMD(md string) ([]int, error) {
	var out []int
	offset := 0
	for i := 0; i < len(md); {
		switch c := md[i]; {
		case c >= '0' && c <= '9':
			j := i
			for j < len(md) && md[j] >= '0' && md[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(md[i:j])
			if err != nil {
				return nil, fmt.Errorf("invalid MD tag %q: %w", md, err)
			}
			offset += n
			i = j
		case c == '^':
			i++
			for i < len(md) && isBase(md[i]) {
				offset++
				i++
			}
		case isBase(c):
			out = append(out, offset)
			offset++
			i++
		default:
			return nil, fmt.Errorf("invalid MD tag %q, unexpected %q", md, c)
		}
	}
	return out, nil
}

func isBase(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// classify derives the mapping class from the secondary flag, the edit
// distance and the number of reported hits.
func classify(rec *sam.Record) classification.Class {
	if rec.Flags&sam.Secondary != 0 {
		return classification.CommonMatch
	}
	nm, _ := auxInt(rec, tagNM)
	nh, ok := auxInt(rec, tagNH)
	single := !ok || nh <= 1
	switch {
	case nm == 0 && single:
		return classification.SinglePerfectMatch
	case nm == 0:
		return classification.PerfectMatch
	case single:
		return classification.SingleBestMatch
	}
	return classification.BestMatch
}

// pairType derives the read pair type of a record from its flags.
func pairType(rec *sam.Record) readpair.Type {
	nh, ok := auxInt(rec, tagNH)
	unique := !ok || nh <= 1
	pick := func(shared, single readpair.Type) readpair.Type {
		if unique {
			return single
		}
		return shared
	}
	switch {
	case rec.Flags&sam.Paired == 0 || rec.Flags&sam.MateUnmapped != 0:
		return pick(readpair.UnpairedPair, readpair.UnpairedUniquePair)
	case rec.Flags&sam.ProperPair != 0:
		return pick(readpair.PerfectPair, readpair.PerfectUniquePair)
	}
	return pick(readpair.DistortedPair, readpair.DistortedUniquePair)
}

func auxInt(rec *sam.Record, tag sam.Tag) (int, bool) {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func auxString(rec *sam.Record, tag sam.Tag) (string, bool) {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return "", false
	}
	s, ok := aux.Value().(string)
	return s, ok
}
