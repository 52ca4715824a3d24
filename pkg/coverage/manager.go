package coverage

import (
	"errors"
	"fmt"

	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/labels"
)

var ErrUnknownClassification = errors.New("unknown classification")

// Track selects one of the two compared tracks of a two track manager.
type Track int

const (
	Track1 Track = iota
	Track2
)

// Manager keeps one Coverage per mapping classification, all sharing the
// same inclusive bounds. Summed coverages are memoized per excluded class
// set. A memoized total is recomputed as soon as any class coverage has
// changed since it was summed.
type Manager struct {
	leftBound       int
	rightBound      int
	twoTracks       bool
	coverages       map[classification.Class]*Coverage
	tracks          [2]*Coverage
	highestCoverage int
	totals          map[string]memo
	log             *logrus.Entry
}

type memo struct {
	total   *Coverage
	version uint64
}

type ManagerOption func(*Manager)

// WithTwoTracks keeps an additional coverage per compared track.
func WithTwoTracks() ManagerOption {
	return func(r *Manager) { r.twoTracks = true }
}

func WithLogger(log *logrus.Entry) ManagerOption {
	return func(r *Manager) { r.log = log }
}

func NewManager(leftBound, rightBound int, opts ...ManagerOption) *Manager {
	r := &Manager{
		leftBound:  leftBound,
		rightBound: rightBound,
		coverages:  make(map[classification.Class]*Coverage, len(classification.All())),
		totals:     map[string]memo{},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range classification.All() {
		r.coverages[c] = New(leftBound, rightBound)
	}
	if r.twoTracks {
		r.tracks[Track1] = New(leftBound, rightBound)
		r.tracks[Track2] = New(leftBound, rightBound)
	}
	return r
}

func (r *Manager) String() string {
	return fmt.Sprintf("coverage manager %d-%d", r.leftBound, r.rightBound)
}

func (r *Manager) LeftBound() int    { return r.leftBound }
func (r *Manager) RightBound() int   { return r.rightBound }
func (r *Manager) IsTwoTracks() bool { return r.twoTracks }

// IncreaseCoverage increments arr[pos-leftBound] for every pos of the
// inclusive interval [refStart, refStop] within the bounds of the manager.
// Positions outside the bounds or the array are skipped.
func (r *Manager) IncreaseCoverage(refStart, refStop int, arr []int) {
	from := max(refStart, r.leftBound)
	to := min(refStop, r.rightBound)
	for pos := from; pos <= to; pos++ {
		if i := pos - r.leftBound; i < len(arr) {
			arr[i]++
		}
	}
	// arr may be one of the managed arrays
	r.Invalidate()
}

func (r *Manager) Coverage(c classification.Class) (*Coverage, error) {
	cov, ok := r.coverages[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClassification, c)
	}
	return cov, nil
}

// TrackCoverage returns the coverage of a compared track, nil unless the
// manager was built with WithTwoTracks.
func (r *Manager) TrackCoverage(t Track) *Coverage {
	if !r.twoTracks || t < Track1 || t > Track2 {
		return nil
	}
	return r.tracks[t]
}

// Difference returns the absolute coverage difference of the two tracks.
func (r *Manager) Difference(pos int, fwd bool) int {
	if !r.twoTracks {
		return 0
	}
	d := r.tracks[Track1].Coverage(pos, fwd) - r.tracks[Track2].Coverage(pos, fwd)
	if d < 0 {
		return -d
	}
	return d
}

// TotalCoverageAt sums the coverage at pos over all classes not excluded.
func (r *Manager) TotalCoverageAt(excluded classification.Set, pos int, fwd bool) int {
	total := 0
	for _, c := range classification.All() {
		if excluded.Has(c) {
			continue
		}
		total += r.coverages[c].Coverage(pos, fwd)
	}
	return total
}

// TotalCoverage returns the summed coverage over all classes not excluded.
// The result is shared between callers and must not be modified.
func (r *Manager) TotalCoverage(excluded classification.Set) *Coverage {
	key := excluded.Key()
	version := r.version()
	if m, ok := r.totals[key]; ok && m.version == version {
		return m.total
	}
	total := New(r.leftBound, r.rightBound)
	total.IncArraysToIntervalSize()
	for _, c := range classification.All() {
		if excluded.Has(c) {
			continue
		}
		total.Add(r.coverages[c])
	}
	r.totals[key] = memo{total: total, version: version}
	r.log.WithFields(logrus.Fields{"excluded": excluded.String(), "bounds": r.String()}).Debug("computed total coverage")
	return total
}

// TotalCoverageSelected returns the summed coverage of the classes whose
// labels match selector.
func (r *Manager) TotalCoverageSelected(selector labels.Selector) *Coverage {
	return r.TotalCoverage(classification.Select(selector).Complement())
}

// Invalidate drops all memoized total coverages.
func (r *Manager) Invalidate() {
	if len(r.totals) > 0 {
		r.totals = map[string]memo{}
	}
}

// version sums the versions of the class coverages. Versions only grow, so
// the sum changes with every modification.
func (r *Manager) version() uint64 {
	var v uint64
	for _, cov := range r.coverages {
		v += cov.Version()
	}
	return v
}

func (r *Manager) CoversBounds(left, right int) bool {
	return coversBounds(r.leftBound, r.rightBound, left, right)
}

// IncArraysToIntervalSize sizes the arrays of all coverages to the bounds.
func (r *Manager) IncArraysToIntervalSize() {
	for _, cov := range r.all() {
		cov.IncArraysToIntervalSize()
	}
	r.Invalidate()
}

func (r *Manager) SetLeftBound(leftBound int) {
	r.leftBound = leftBound
	for _, cov := range r.all() {
		cov.SetLeftBound(leftBound)
	}
	r.Invalidate()
}

func (r *Manager) SetRightBound(rightBound int) {
	r.rightBound = rightBound
	for _, cov := range r.all() {
		cov.SetRightBound(rightBound)
	}
	r.Invalidate()
}

func (r *Manager) HighestCoverage() int { return r.highestCoverage }

func (r *Manager) SetHighestCoverage(n int) { r.highestCoverage = n }

// ComputeHighestCoverage sets the highest coverage from the total coverage of
// the classes not excluded and returns it.
func (r *Manager) ComputeHighestCoverage(excluded classification.Set) int {
	r.highestCoverage = r.TotalCoverage(excluded).Max()
	return r.highestCoverage
}

// AddMapping adds the replicates of m to the coverage of its class on its
// strand. Deleted bases of the read are not counted.
func (r *Manager) AddMapping(m *mapping.Mapping) error {
	cov, err := r.Coverage(m.Class)
	if err != nil {
		return err
	}
	r.add(cov, m)
	return nil
}

// AddTrackMapping adds m to the coverage of a compared track.
func (r *Manager) AddTrackMapping(t Track, m *mapping.Mapping) error {
	cov := r.TrackCoverage(t)
	if cov == nil {
		return fmt.Errorf("manager %s has no track %d", r, t)
	}
	r.add(cov, m)
	return nil
}

func (r *Manager) add(cov *Coverage, m *mapping.Mapping) {
	cov.IncArraysToIntervalSize()
	deleted := map[int]bool{}
	for _, d := range m.Diffs {
		if d.Base == mapping.DeletionBase {
			deleted[d.Pos] = true
		}
	}
	n := m.Replicates()
	from := max(m.Start, r.leftBound)
	to := min(m.Stop, r.rightBound)
	for pos := from; pos <= to; pos++ {
		if !deleted[pos] {
			cov.Increase(pos, m.Fwd, n)
		}
	}
	r.Invalidate()
}

func (r *Manager) all() []*Coverage {
	out := make([]*Coverage, 0, len(r.coverages)+2)
	for _, c := range classification.All() {
		out = append(out, r.coverages[c])
	}
	if r.twoTracks {
		out = append(out, r.tracks[Track1], r.tracks[Track2])
	}
	return out
}
