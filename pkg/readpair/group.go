package readpair

import (
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/sirupsen/logrus"
)

// Group collects all mappings sharing one read pair id within a window.
type Group struct {
	readPairID int64
	pairs      []*ReadPair
	singles    []*mapping.Mapping
	// pending maps the id of a missing mate to the pair waiting for it
	pending map[int64]*ReadPair
	// placed maps every mapping id already part of a pair to that pair
	placed map[int64]*ReadPair
	log    *logrus.Entry
}

func NewGroup(readPairID int64, log *logrus.Entry) *Group {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Group{
		readPairID: readPairID,
		pending:    map[int64]*ReadPair{},
		placed:     map[int64]*ReadPair{},
		log:        log.WithField("readPairID", readPairID),
	}
}

func (r *Group) ReadPairID() int64 { return r.readPairID }

func (r *Group) ReadPairs() []*ReadPair { return r.pairs }

func (r *Group) SingleMappings() []*mapping.Mapping { return r.singles }

// AddPersistentMapping adds a mapping whose mate is only known by id. The
// mapping completes the pair waiting for it, otherwise a new pair is opened.
// A mapping id that is already part of a pair is ignored, so re-delivered
// mappings never duplicate a pair.
func (r *Group) AddPersistentMapping(m *mapping.Mapping, typ Type, mapping1ID, mapping2ID int64, replicates int) {
	if typ.IsUnpaired() {
		r.singles = append(r.singles, m)
		return
	}

	if pair, ok := r.placed[m.ID]; ok {
		r.log.WithField("mappingID", m.ID).Debugf("mapping already placed in %s", pair)
		return
	}

	if pair, ok := r.pending[m.ID]; ok && pair.Mapping2 == nil {
		pair.Mapping2 = m
		pair.BothVisible = true
		delete(r.pending, m.ID)
		r.placed[m.ID] = pair
		return
	}

	pair := &ReadPair{
		ID:         r.readPairID,
		Type:       typ,
		Mapping1ID: mapping1ID,
		Mapping2ID: mapping2ID,
		Replicates: replicates,
		Mapping1:   m,
	}
	r.pairs = append(r.pairs, pair)
	r.placed[m.ID] = pair

	mate := mapping2ID
	if m.ID == mapping2ID {
		mate = mapping1ID
	}
	if mate == m.ID {
		return
	}
	if _, ok := r.pending[mate]; ok {
		// the mate can only complete one pair, the first one keeps it
		r.log.WithField("mappingID", mate).Debug("mate already awaited by another pair")
		return
	}
	r.pending[mate] = pair
}

// AddPersistentDirectAccessMapping adds a mapping together with its mate.
// Pairs are matched on the start and strand of both ends, in either order.
func (r *Group) AddPersistentDirectAccessMapping(m, mate *mapping.Mapping, typ Type, bothVisible bool) {
	if typ.IsUnpaired() || mate == nil {
		r.singles = append(r.singles, m)
		return
	}

	for _, pair := range r.pairs {
		if !pair.IsComplete() {
			continue
		}
		if (sameEnd(pair.Mapping1, m) && sameEnd(pair.Mapping2, mate)) ||
			(sameEnd(pair.Mapping1, mate) && sameEnd(pair.Mapping2, m)) {
			if bothVisible {
				pair.BothVisible = true
			}
			return
		}
	}

	pair := &ReadPair{
		ID:          r.readPairID,
		Type:        typ,
		Mapping1ID:  m.ID,
		Mapping2ID:  mate.ID,
		Replicates:  max(m.Replicates(), mate.Replicates()),
		Mapping1:    m,
		Mapping2:    mate,
		BothVisible: bothVisible,
	}
	r.pairs = append(r.pairs, pair)
	r.placed[m.ID] = pair
	r.placed[mate.ID] = pair
}
