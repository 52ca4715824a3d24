package refseq

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/intervalcache"
)

var ErrUnknownReference = errors.New("unknown reference")

// Genome holds the reference sequences of a FASTA file by name. Sequence
// names are the FASTA ids, the description after the first blank is
// dropped.
type Genome struct {
	seqs map[string]string
}

func Load(path string) (*Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open reference: %w", err)
	}
	defer f.Close()
	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read reference %s: %w", path, err)
	}
	return g, nil
}

func Read(r io.Reader) (*Genome, error) {
	g := &Genome{seqs: map[string]string{}}
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		if _, ok := g.seqs[s.ID]; ok {
			return nil, fmt.Errorf("duplicate reference %q", s.ID)
		}
		g.seqs[s.ID] = strings.ToUpper(string(alphabet.LettersToBytes(s.Seq)))
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return g, nil
}

// Names returns the reference names in ascending order.
func (r *Genome) Names() []string {
	names := make([]string, 0, len(r.seqs))
	for name := range r.seqs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Genome) Len(ref string) (int, bool) {
	s, ok := r.seqs[ref]
	return len(s), ok
}

// Sequence returns the bases of ref in iv.
func (r *Genome) Sequence(ref string, iv interval.Interval) (string, error) {
	s, ok := r.seqs[ref]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownReference, ref)
	}
	if !iv.IsValid() || iv.Start < 0 || iv.End > len(s) {
		return "", fmt.Errorf("interval %s is outside of %s with length %d", iv, ref, len(s))
	}
	return s[iv.Start:iv.End], nil
}

// NewSequenceCache returns a cache of the bases of ref that reads from the
// genome on demand.
func NewSequenceCache(g *Genome, ref string, opts ...intervalcache.Option) (intervalcache.Cache[string], error) {
	if _, ok := g.Len(ref); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownReference, ref)
	}
	return intervalcache.New[string](intervalcache.StringStrategy{}, func(iv interval.Interval) (string, error) {
		return g.Sequence(ref, iv)
	}, opts...)
}
