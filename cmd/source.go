package cmd

import (
	"context"
	"errors"

	"github.com/henderiw/rxcore/pkg/coverage"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/henderiw/rxcore/pkg/readpair"
	"github.com/henderiw/rxcore/pkg/source/bamsource"
	"github.com/henderiw/rxcore/pkg/source/sqlsource"
)

// mappingSource is the common surface of the BAM and database connectors.
type mappingSource interface {
	Mappings(ctx context.Context, region interval.Region) ([]*mapping.Mapping, error)
	ReadPairGroups(ctx context.Context, region interval.Region) ([]*readpair.Group, error)
	Coverage(ctx context.Context, region interval.Region) (*coverage.Manager, error)
	Close() error
}

// openSource opens the database when a dsn is configured, the BAM file
// otherwise.
func openSource(ctx context.Context) (mappingSource, error) {
	switch {
	case cfg.DSN != "":
		c, err := sqlsource.Open(ctx, cfg.DSN, sqlsource.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &sqlSource{c: c, track: cfg.Track}, nil
	case cfg.BAM != "":
		r, err := bamsource.Open(cfg.BAM, bamsource.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &bamSource{r: r}, nil
	}
	return nil, errors.New("neither --bam nor --dsn is set")
}

type bamSource struct {
	r *bamsource.Reader
}

func (s *bamSource) Mappings(_ context.Context, region interval.Region) ([]*mapping.Mapping, error) {
	return s.r.Mappings(region)
}

func (s *bamSource) ReadPairGroups(_ context.Context, region interval.Region) ([]*readpair.Group, error) {
	return s.r.ReadPairGroups(region)
}

func (s *bamSource) Coverage(ctx context.Context, region interval.Region) (*coverage.Manager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.r.Coverage(region)
}

func (s *bamSource) Close() error { return nil }

type sqlSource struct {
	c     *sqlsource.Connector
	track int64
}

func (s *sqlSource) Mappings(ctx context.Context, region interval.Region) ([]*mapping.Mapping, error) {
	return s.c.Mappings(ctx, s.track, region)
}

func (s *sqlSource) ReadPairGroups(ctx context.Context, region interval.Region) ([]*readpair.Group, error) {
	return s.c.ReadPairGroups(ctx, s.track, region)
}

func (s *sqlSource) Coverage(ctx context.Context, region interval.Region) (*coverage.Manager, error) {
	return s.c.Coverage(ctx, s.track, region)
}

func (s *sqlSource) Close() error { return s.c.Close() }
