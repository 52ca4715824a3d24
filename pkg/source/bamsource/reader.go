package bamsource

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/henderiw/rxcore/pkg/coverage"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
	"github.com/sirupsen/logrus"
)

var ErrUnknownReference = errors.New("unknown reference")

type Option func(*Reader)

// WithThreads sets the number of bgzf decompression goroutines.
func WithThreads(n int) Option {
	return func(r *Reader) { r.threads = n }
}

func WithLogger(log *logrus.Entry) Option {
	return func(r *Reader) { r.log = log }
}

// Reader reads the mappings of a BAM file. A BAM index next to the file,
// <path>.bai, is used for region queries when present.
type Reader struct {
	path    string
	threads int
	log     *logrus.Entry
}

func Open(path string, opts ...Option) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open bam file: %w", err)
	}
	r := &Reader{path: path, threads: 1}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.log = r.log.WithField("bam", path)
	return r, nil
}

func (r *Reader) Path() string { return r.path }

// Mappings returns the mappings overlapping region. Unmapped records are
// skipped. Mapping ids follow the record order in the file.
func (r *Reader) Mappings(region interval.Region) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping
	err := r.records(region, func(rec *sam.Record, id int64) error {
		m, err := newMapping(rec, id)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// ReadPairGroups groups the mappings of region by read name. Mates are
// matched on the mate position recorded in each record, records without a
// visible mate become single mappings of their group.
func (r *Reader) ReadPairGroups(region interval.Region) ([]*readpair.Group, error) {
	type mate struct {
		rec *sam.Record
		m   *mapping.Mapping
	}
	var names []string
	byName := map[string][]mate{}
	err := r.records(region, func(rec *sam.Record, id int64) error {
		m, err := newMapping(rec, id)
		if err != nil {
			return err
		}
		if _, ok := byName[rec.Name]; !ok {
			names = append(names, rec.Name)
		}
		byName[rec.Name] = append(byName[rec.Name], mate{rec: rec, m: m})
		return nil
	})
	if err != nil {
		return nil, err
	}

	groups := make([]*readpair.Group, 0, len(names))
	for i, name := range names {
		g := readpair.NewGroup(int64(i), r.log)
		mates := byName[name]
		used := make([]bool, len(mates))
		for a := range mates {
			if used[a] {
				continue
			}
			typ := pairType(mates[a].rec)
			partner := -1
			if !typ.IsUnpaired() {
				for b := range mates {
					if b != a && !used[b] && isMate(mates[a].rec, mates[b].rec) {
						partner = b
						break
					}
				}
			}
			used[a] = true
			if partner < 0 {
				g.AddPersistentDirectAccessMapping(mates[a].m, nil, typ, false)
				continue
			}
			used[partner] = true
			g.AddPersistentDirectAccessMapping(mates[a].m, mates[partner].m, typ, true)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func isMate(a, b *sam.Record) bool {
	return a.MatePos == b.Pos && b.MatePos == a.Pos &&
		(a.Flags&sam.Read1 != 0) != (b.Flags&sam.Read1 != 0)
}

// Coverage counts the mappings of region into a coverage manager spanning
// the region.
func (r *Reader) Coverage(region interval.Region) (*coverage.Manager, error) {
	cm := coverage.NewManager(region.First(), region.Last(), coverage.WithLogger(r.log))
	cm.IncArraysToIntervalSize()
	err := r.records(region, func(rec *sam.Record, id int64) error {
		m, err := newMapping(rec, id)
		if err != nil {
			return err
		}
		return cm.AddMapping(m)
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// records calls fn for every mapped record overlapping region.
func (r *Reader) records(region interval.Region, fn func(rec *sam.Record, id int64) error) error {
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	br, err := bam.NewReader(f, r.threads)
	if err != nil {
		return fmt.Errorf("cannot read bam header of %s: %w", r.path, err)
	}
	defer br.Close()

	var ref *sam.Reference
	for _, rf := range br.Header().Refs() {
		if rf.Name() == region.Ref {
			ref = rf
			break
		}
	}
	if ref == nil {
		return fmt.Errorf("%w %q in %s", ErrUnknownReference, region.Ref, r.path)
	}

	next, err := r.iterate(br, ref, region)
	if err != nil {
		return err
	}
	var id, skipped int64
	for {
		rec, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("cannot read record from %s: %w", r.path, err)
		}
		if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil || rec.Ref.Name() != region.Ref ||
			rec.Pos >= region.End || rec.End() <= region.Start {
			skipped++
			continue
		}
		id++
		if err := fn(rec, id); err != nil {
			return err
		}
	}
	r.log.WithFields(logrus.Fields{"region": region.String(), "records": id, "skipped": skipped}).Debug("bam region read")
	return nil
}

// iterate returns a record source for region, using the index if one is
// found next to the file.
func (r *Reader) iterate(br *bam.Reader, ref *sam.Reference, region interval.Region) (func() (*sam.Record, error), error) {
	fi, err := os.Open(r.path + ".bai")
	if err != nil {
		return br.Read, nil
	}
	defer fi.Close()

	idx, err := bam.ReadIndex(fi)
	if err != nil {
		return nil, fmt.Errorf("cannot read bam index of %s: %w", r.path, err)
	}
	chunks, err := idx.Chunks(ref, region.Start, region.End)
	if err != nil {
		r.log.WithError(err).Debug("no index chunks, reading whole file")
		return br.Read, nil
	}
	it, err := bam.NewIterator(br, chunks)
	if err != nil {
		return nil, err
	}
	return func() (*sam.Record, error) {
		if it.Next() {
			return it.Record(), nil
		}
		if err := it.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}, nil
}
