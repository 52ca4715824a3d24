package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/henderiw/rxcore/pkg/coverage"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/pbenner/threadpool"
	"github.com/sirupsen/logrus"
)

// Source computes the coverage of a region. Implementations are called from
// several goroutines at once.
type Source interface {
	Coverage(ctx context.Context, region interval.Region) (*coverage.Manager, error)
}

type SourceFunc func(ctx context.Context, region interval.Region) (*coverage.Manager, error)

func (f SourceFunc) Coverage(ctx context.Context, region interval.Region) (*coverage.Manager, error) {
	return f(ctx, region)
}

type Status int

const (
	StatusDone Status = iota
	StatusFailed
	StatusCanceled
)

func (r Status) String() string {
	switch r {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Result is the outcome for one region. Manager is nil unless Status is
// StatusDone.
type Result struct {
	Region  interval.Region
	Manager *coverage.Manager
	Err     error
	Status  Status
}

type Option func(*Runner)

func WithThreads(n int) Option {
	return func(r *Runner) { r.threads = n }
}

func WithLogger(log *logrus.Entry) Option {
	return func(r *Runner) { r.log = log }
}

// Runner computes the coverage of many regions on a shared thread pool.
type Runner struct {
	threads int
	pool    threadpool.ThreadPool
	log     *logrus.Entry
}

func New(opts ...Option) *Runner {
	r := &Runner{threads: 1}
	for _, o := range opts {
		o(r)
	}
	r.threads = max(r.threads, 1)
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.pool = threadpool.New(r.threads, 100*r.threads)
	return r
}

// Close stops the workers of the thread pool. The runner cannot be used
// afterwards.
func (r *Runner) Close() {
	r.pool.Stop()
}

// Coverage computes the coverage of every region. The results are in the
// order of regions, one per region, whatever their outcome. The returned
// error joins the errors of all failed regions.
func (r *Runner) Coverage(ctx context.Context, src Source, regions []interval.Region) ([]Result, error) {
	if len(regions) == 0 {
		return nil, nil
	}
	results := make([]Result, len(regions))
	var failed atomic.Int64

	g := r.pool.NewJobGroup()
	if err := r.pool.AddRangeJob(0, len(regions), g, func(i int, pool threadpool.ThreadPool, erf func() error) error {
		res := Result{Region: regions[i]}
		if err := ctx.Err(); err != nil {
			res.Status, res.Err = StatusCanceled, err
			results[i] = res
			return nil
		}
		cm, err := src.Coverage(ctx, regions[i])
		switch {
		case err == nil:
			res.Status, res.Manager = StatusDone, cm
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			res.Status, res.Err = StatusCanceled, err
		default:
			res.Status, res.Err = StatusFailed, err
			failed.Add(1)
		}
		r.log.WithFields(logrus.Fields{"region": regions[i].String(), "status": res.Status, "thread": pool.GetThreadId()}).Debug("region done")
		results[i] = res
		return nil
	}); err != nil {
		return nil, err
	}
	if err := r.pool.Wait(g); err != nil {
		return nil, err
	}

	var errs error
	for _, res := range results {
		if res.Err != nil {
			errs = errors.Join(errs, fmt.Errorf("region %s: %w", res.Region, res.Err))
		}
	}
	r.log.WithFields(logrus.Fields{"regions": len(regions), "failed": failed.Load()}).Info("batch coverage finished")
	return results, errs
}
