package sqlsource

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/coverage"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
	"github.com/sirupsen/logrus"
)

// Positions are stored 1-based and inclusive. Diff rows with TYPE 1 are
// substitutions or deletions, TYPE 0 rows are bases inserted before POSITION.
const (
	mappingsQuery = "SELECT ID, START, STOP, DIRECTION, NUM_OF_REPLICATES, MISMATCHES, IS_BEST_MAPPING, IS_UNIQUE " +
		"FROM MAPPING WHERE TRACK_ID = ? AND STOP >= ? AND START <= ? ORDER BY START, ID"
	diffsQuery = "SELECT d.MAPPING_ID, d.POSITION, d.BASE, d.TYPE, d.GAP_ORDER " +
		"FROM DIFF d JOIN MAPPING m ON d.MAPPING_ID = m.ID " +
		"WHERE m.TRACK_ID = ? AND m.STOP >= ? AND m.START <= ?"
	pairsQuery = "SELECT m.ID, p.PAIR_ID, p.TYPE, p.MAPPING1_ID, p.MAPPING2_ID, p.NUM_OF_REPLICATES " +
		"FROM SEQ_PAIRS p JOIN MAPPING m ON m.ID = p.MAPPING1_ID OR m.ID = p.MAPPING2_ID " +
		"WHERE m.TRACK_ID = ? AND m.STOP >= ? AND m.START <= ? ORDER BY p.PAIR_ID, m.ID"

	diffTypeSubstitution = 1
	diffTypeInsertion    = 0
)

type Option func(*Connector)

func WithLogger(log *logrus.Entry) Option {
	return func(r *Connector) { r.log = log }
}

// Connector reads the mappings of stored tracks.
type Connector struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open connects to a MySQL database, dsn is in the go-sql-driver format.
func Open(ctx context.Context, dsn string, opts ...Option) (*Connector, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot reach database: %w", err)
	}
	return New(db, opts...), nil
}

func New(db *sql.DB, opts ...Option) *Connector {
	r := &Connector{db: db}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return r
}

func (r *Connector) Close() error { return r.db.Close() }

func bounds(region interval.Region) (int, int) {
	return region.Start + 1, region.End
}

// Mappings returns the mappings of a track overlapping region, ordered by
// start.
func (r *Connector) Mappings(ctx context.Context, trackID int64, region interval.Region) ([]*mapping.Mapping, error) {
	from, to := bounds(region)
	rows, err := r.db.QueryContext(ctx, mappingsQuery, trackID, from, to)
	if err != nil {
		return nil, fmt.Errorf("cannot query mappings of track %d: %w", trackID, err)
	}
	defer rows.Close()

	var out []*mapping.Mapping
	byID := map[int64]*mapping.Mapping{}
	for rows.Next() {
		var (
			m                mapping.Mapping
			direction        int
			mismatches       int
			isBest, isUnique bool
		)
		if err := rows.Scan(&m.ID, &m.Start, &m.Stop, &direction, &m.Count, &mismatches, &isBest, &isUnique); err != nil {
			return nil, err
		}
		m.Start--
		m.Stop--
		m.Fwd = direction >= 0
		m.Class = classify(mismatches, isBest, isUnique)
		out = append(out, &m)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.addDiffs(ctx, trackID, region, byID); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"track": trackID, "region": region.String(), "mappings": len(out)}).Debug("mappings queried")
	return out, nil
}

func (r *Connector) addDiffs(ctx context.Context, trackID int64, region interval.Region, byID map[int64]*mapping.Mapping) error {
	from, to := bounds(region)
	rows, err := r.db.QueryContext(ctx, diffsQuery, trackID, from, to)
	if err != nil {
		return fmt.Errorf("cannot query diffs of track %d: %w", trackID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, pos, typ, order int64
			base                string
		)
		if err := rows.Scan(&id, &pos, &base, &typ, &order); err != nil {
			return err
		}
		m, ok := byID[id]
		if !ok || base == "" {
			continue
		}
		switch typ {
		case diffTypeSubstitution:
			m.Diffs = append(m.Diffs, mapping.Diff{Pos: int(pos) - 1, Base: base[0]})
		case diffTypeInsertion:
			m.Gaps = append(m.Gaps, mapping.ReferenceGap{Pos: int(pos) - 1, Order: int(order), Base: base[0]})
		default:
			return fmt.Errorf("mapping %d has diff of unknown type %d", id, typ)
		}
	}
	return rows.Err()
}

// ReadPairGroups returns one group per stored pair with the mappings of
// region. Mappings that belong to no pair are returned as single mappings in
// groups of their own.
func (r *Connector) ReadPairGroups(ctx context.Context, trackID int64, region interval.Region) ([]*readpair.Group, error) {
	mappings, err := r.Mappings(ctx, trackID, region)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*mapping.Mapping, len(mappings))
	for _, m := range mappings {
		byID[m.ID] = m
	}

	from, to := bounds(region)
	rows, err := r.db.QueryContext(ctx, pairsQuery, trackID, from, to)
	if err != nil {
		return nil, fmt.Errorf("cannot query pairs of track %d: %w", trackID, err)
	}
	defer rows.Close()

	var groups []*readpair.Group
	byPair := map[int64]*readpair.Group{}
	paired := map[int64]bool{}
	for rows.Next() {
		var (
			mappingID, pairID, m1ID, m2ID int64
			typ, replicates               int
		)
		if err := rows.Scan(&mappingID, &pairID, &typ, &m1ID, &m2ID, &replicates); err != nil {
			return nil, err
		}
		t := readpair.Type(typ)
		if t < readpair.PerfectPair || t > readpair.UnpairedUniquePair {
			return nil, fmt.Errorf("pair %d has unknown type %d", pairID, typ)
		}
		m, ok := byID[mappingID]
		if !ok {
			continue
		}
		g, ok := byPair[pairID]
		if !ok {
			g = readpair.NewGroup(pairID, r.log)
			byPair[pairID] = g
			groups = append(groups, g)
		}
		g.AddPersistentMapping(m, t, m1ID, m2ID, replicates)
		paired[mappingID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, m := range mappings {
		if paired[m.ID] {
			continue
		}
		g := readpair.NewGroup(-m.ID, r.log)
		g.AddPersistentDirectAccessMapping(m, nil, readpair.UnpairedPair, false)
		groups = append(groups, g)
	}
	return groups, nil
}

// Coverage counts the mappings of a track into a coverage manager spanning
// region.
func (r *Connector) Coverage(ctx context.Context, trackID int64, region interval.Region) (*coverage.Manager, error) {
	mappings, err := r.Mappings(ctx, trackID, region)
	if err != nil {
		return nil, err
	}
	cm := coverage.NewManager(region.First(), region.Last(), coverage.WithLogger(r.log))
	cm.IncArraysToIntervalSize()
	for _, m := range mappings {
		if err := cm.AddMapping(m); err != nil {
			return nil, err
		}
	}
	return cm, nil
}

func classify(mismatches int, isBest, isUnique bool) classification.Class {
	switch {
	case mismatches == 0 && isUnique:
		return classification.SinglePerfectMatch
	case mismatches == 0:
		return classification.PerfectMatch
	case isBest && isUnique:
		return classification.SingleBestMatch
	case isBest:
		return classification.BestMatch
	}
	return classification.CommonMatch
}
