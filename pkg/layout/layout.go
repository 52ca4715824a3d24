package layout

import (
	"bufio"
	"fmt"
	"io"

	"github.com/henderiw/rxcore/pkg/gap"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
	"github.com/sirupsen/logrus"
)

type options struct {
	strategy Strategy
	log      *logrus.Entry
}

type Option func(*options)

func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// Layout arranges the mappings of a reference window into layers of
// non-overlapping blocks, one stack per strand.
type Layout struct {
	absStart      int
	absStop       int
	requestedStop int
	gaps          *gap.Manager
	forward       []*Layer
	reverse       []*Layer
	log           *logrus.Entry
}

// New lays out mappings in the inclusive window [absStart, absStop]. The
// window stop is reduced by the insertion columns the mappings open, blocks
// are clipped to the reduced window and mappings outside it are dropped.
func New(absStart, absStop int, mappings []*mapping.Mapping, opts ...Option) (*Layout, error) {
	r, o := newLayout(absStart, absStop, opts...)
	for _, m := range mappings {
		r.gaps.AddMapping(m)
	}
	r.absStop = r.gaps.RevisedStop(absStart, absStop)

	fwd, rev := NewBlockContainer(), NewBlockContainer()
	for _, m := range mappings {
		b := r.clip(m.Start, m.Stop)
		if b == nil {
			continue
		}
		b.mapping = m
		r.route(b, fwd, rev)
	}
	return r, r.pack(o.strategy, fwd, rev)
}

// NewReadPairLayout lays out the read pairs and single mappings of groups.
// A pair becomes one block spanning both mates.
func NewReadPairLayout(absStart, absStop int, groups []*readpair.Group, opts ...Option) (*Layout, error) {
	r, o := newLayout(absStart, absStop, opts...)
	for _, g := range groups {
		for _, p := range g.ReadPairs() {
			for _, m := range p.Mappings() {
				r.gaps.AddMapping(m)
			}
		}
		for _, m := range g.SingleMappings() {
			r.gaps.AddMapping(m)
		}
	}
	r.absStop = r.gaps.RevisedStop(absStart, absStop)

	fwd, rev := NewBlockContainer(), NewBlockContainer()
	for _, g := range groups {
		for _, p := range g.ReadPairs() {
			if b := r.clip(p.Start(), p.Stop()); b != nil {
				b.pair = p
				r.route(b, fwd, rev)
			}
		}
		for _, m := range g.SingleMappings() {
			if b := r.clip(m.Start, m.Stop); b != nil {
				b.mapping = m
				r.route(b, fwd, rev)
			}
		}
	}
	return r, r.pack(o.strategy, fwd, rev)
}

func newLayout(absStart, absStop int, opts ...Option) (*Layout, options) {
	o := options{strategy: Greedy}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Layout{
		absStart:      absStart,
		absStop:       absStop,
		requestedStop: absStop,
		gaps:          gap.NewManager(),
		log:           o.log.WithField("window", fmt.Sprintf("%d-%d", absStart, absStop)),
	}, o
}

func (r *Layout) clip(start, stop int) *Block {
	start = max(start, r.absStart)
	stop = min(stop, r.absStop)
	if start > stop {
		return nil
	}
	return &Block{absStart: start, absStop: stop, gaps: r.gaps}
}

func (r *Layout) route(b *Block, fwd, rev *BlockContainer) {
	if b.Fwd() {
		fwd.Add(b)
		return
	}
	rev.Add(b)
}

func (r *Layout) pack(s Strategy, fwd, rev *BlockContainer) error {
	blocks := fwd.Len() + rev.Len()
	var err error
	if r.forward, err = pack(fwd, s); err != nil {
		return err
	}
	if r.reverse, err = pack(rev, s); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"strategy": s,
		"blocks":   blocks,
		"fwd":      len(r.forward),
		"rev":      len(r.reverse),
	}).Debug("layout packed")
	return nil
}

func (r *Layout) Forward() []*Layer        { return r.forward }
func (r *Layout) Reverse() []*Layer        { return r.reverse }
func (r *Layout) GapManager() *gap.Manager { return r.gaps }
func (r *Layout) AbsStart() int            { return r.absStart }
func (r *Layout) AbsStop() int             { return r.absStop }
func (r *Layout) RequestedStop() int       { return r.requestedStop }

// Column returns the rendered column of the reference position pos.
func (r *Layout) Column(pos int) int {
	return pos - r.absStart + r.gaps.TotalGapsBetween(r.absStart, pos+1)
}

// Render draws the forward layers followed by the reverse layers, one line
// per layer. Every line is prefixed with the strand.
func (r *Layout) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	width := r.Column(r.absStop) + 1
	for _, s := range []struct {
		prefix string
		layers []*Layer
	}{
		{prefix: "+ ", layers: r.forward},
		{prefix: "- ", layers: r.reverse},
	} {
		for _, l := range s.layers {
			line := make([]rune, width)
			for i := range line {
				line[i] = ' '
			}
			for _, b := range l.Blocks() {
				col := r.Column(b.absStart) - b.LeadingGaps()
				for brick := range b.Bricks() {
					if col >= width {
						break
					}
					line[col] = brick.Rune()
					col++
				}
			}
			if _, err := fmt.Fprintf(bw, "%s%s\n", s.prefix, string(line)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
