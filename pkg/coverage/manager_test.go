package coverage

import (
	"errors"
	"testing"

	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
)

func TestIncreaseCoverage(t *testing.T) {
	cases := map[string]struct {
		left, right       int
		refStart, refStop int
		arrLen            int
		expected          []int
	}{
		"LeftPartlyOutside": {
			left: 100, right: 200,
			refStart: 90, refStop: 110,
			arrLen:   21,
			expected: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		"RightPartlyOutside": {
			left: 0, right: 4,
			refStart: 2, refStop: 10,
			arrLen:   5,
			expected: []int{0, 0, 1, 1, 1},
		},
		"EntirelyOutside": {
			left: 100, right: 200,
			refStart: 10, refStop: 20,
			arrLen:   5,
			expected: []int{0, 0, 0, 0, 0},
		},
		"ShortArray": {
			left: 0, right: 100,
			refStart: 0, refStop: 100,
			arrLen:   3,
			expected: []int{1, 1, 1},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := NewManager(tc.left, tc.right)
			arr := make([]int, tc.arrLen)
			m.IncreaseCoverage(tc.refStart, tc.refStop, arr)
			assert.Equal(t, tc.expected, arr)
		})
	}
}

func TestCoversBounds(t *testing.T) {
	m := NewManager(100, 200)
	for _, p := range []int{0, 99, 201, 1000, -5} {
		assert.False(t, m.CoversBounds(p, p), "position %d", p)
	}
	assert.True(t, m.CoversBounds(100, 200))
	assert.True(t, m.CoversBounds(150, 150))
	assert.False(t, m.CoversBounds(150, 201))
	assert.False(t, NewManager(0, 0).CoversBounds(0, 0))
}

func TestCoverageUnknownClassification(t *testing.T) {
	m := NewManager(0, 10)
	_, err := m.Coverage(classification.Class(99))
	assert.True(t, errors.Is(err, ErrUnknownClassification))

	for _, c := range classification.All() {
		cov, err := m.Coverage(c)
		assert.NoError(t, err)
		assert.Equal(t, 0, cov.LeftBound())
		assert.Equal(t, 10, cov.RightBound())
	}
	assert.Error(t, m.AddMapping(&mapping.Mapping{Class: classification.Class(-1)}))
}

func populate(t *testing.T, m *Manager) {
	t.Helper()
	m.IncArraysToIntervalSize()
	for i, c := range classification.All() {
		cov, err := m.Coverage(c)
		require.NoError(t, err)
		for pos := m.LeftBound(); pos <= m.RightBound(); pos++ {
			cov.SetCoverage(pos, true, (i+1)*pos)
			cov.SetCoverage(pos, false, i+1)
		}
	}
	m.Invalidate()
}

func TestTotalCoverageAt(t *testing.T) {
	m := NewManager(10, 20)
	populate(t, m)

	for pos := 10; pos <= 20; pos++ {
		for _, fwd := range []bool{true, false} {
			sum := 0
			for _, c := range classification.All() {
				cov, _ := m.Coverage(c)
				sum += cov.Coverage(pos, fwd)
			}
			assert.Equal(t, sum, m.TotalCoverageAt(0, pos, fwd))
		}
	}
	// 1+2+3+4+5 minus common (5)
	assert.Equal(t, 10, m.TotalCoverageAt(classification.NewSet(classification.CommonMatch), 12, false))
	assert.Equal(t, 0, m.TotalCoverageAt(0, 500, true))
}

func TestTotalCoverageMemoizedPerExclusionSet(t *testing.T) {
	m := NewManager(10, 20)
	populate(t, m)

	all := m.TotalCoverage(0)
	assert.Equal(t, 15, all.Coverage(15, false))
	assert.Same(t, all, m.TotalCoverage(0))

	noCommon := m.TotalCoverage(classification.NewSet(classification.CommonMatch))
	assert.NotSame(t, all, noCommon)
	assert.Equal(t, 10, noCommon.Coverage(15, false))

	// changing the data drops the memo
	require.NoError(t, m.AddMapping(&mapping.Mapping{Start: 15, Stop: 15, Fwd: false, Class: classification.BestMatch, Count: 4}))
	updated := m.TotalCoverage(0)
	assert.NotSame(t, all, updated)
	assert.Equal(t, 19, updated.Coverage(15, false))
	assert.Equal(t, 15, all.Coverage(15, false))
}

func TestTotalCoverageFollowsClassCoverage(t *testing.T) {
	cases := map[string]struct {
		mutate   func(cov *Coverage)
		expected int
	}{
		"Increase": {
			mutate:   func(cov *Coverage) { cov.Increase(15, true, 7) },
			expected: 7,
		},
		"SetCoverage": {
			mutate:   func(cov *Coverage) { cov.SetCoverage(15, true, 3) },
			expected: 3,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := NewManager(10, 20)
			m.IncArraysToIntervalSize()
			assert.Equal(t, 0, m.TotalCoverage(0).Coverage(15, true))

			cov, err := m.Coverage(classification.PerfectMatch)
			require.NoError(t, err)
			tc.mutate(cov)

			assert.Equal(t, tc.expected, m.TotalCoverageAt(0, 15, true))
			assert.Equal(t, tc.expected, m.TotalCoverage(0).Coverage(15, true))
			assert.Equal(t, tc.expected, m.ComputeHighestCoverage(0))
		})
	}
}

func TestTotalCoverageSelected(t *testing.T) {
	m := NewManager(10, 20)
	populate(t, m)

	selector, err := labels.Parse("class=perfect")
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalCoverageSelected(selector).Coverage(15, false))
	assert.Same(t, m.TotalCoverageSelected(selector), m.TotalCoverage(classification.NewSet(
		classification.SingleBestMatch, classification.BestMatch, classification.CommonMatch)))
}

func TestAddMapping(t *testing.T) {
	m := NewManager(0, 9)
	require.NoError(t, m.AddMapping(&mapping.Mapping{
		Start: 2, Stop: 12, Fwd: true, Class: classification.PerfectMatch,
		Diffs: []mapping.Diff{{Pos: 4, Base: mapping.DeletionBase}, {Pos: 5, Base: 'A'}},
	}))
	cov, err := m.Coverage(classification.PerfectMatch)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 0, 1, 1, 1, 1, 1}, cov.Fwd())
	assert.Equal(t, make([]int, 10), cov.Rev())

	assert.Equal(t, 1, m.ComputeHighestCoverage(0))
	assert.Equal(t, 1, m.HighestCoverage())
	m.SetHighestCoverage(7)
	assert.Equal(t, 7, m.HighestCoverage())
}

func TestBoundsPropagate(t *testing.T) {
	m := NewManager(10, 19, WithTwoTracks())
	m.IncArraysToIntervalSize()
	cov, _ := m.Coverage(classification.BestMatch)
	cov.SetCoverage(12, true, 5)

	m.SetLeftBound(12)
	m.SetRightBound(25)
	for _, c := range classification.All() {
		cov, _ := m.Coverage(c)
		assert.Equal(t, 12, cov.LeftBound())
		assert.Equal(t, 25, cov.RightBound())
		assert.Len(t, cov.Fwd(), 14)
	}
	assert.Equal(t, 5, cov.Coverage(12, true))
	assert.Equal(t, 0, cov.Coverage(11, true))
	assert.Equal(t, 12, m.TrackCoverage(Track2).LeftBound())
}

func TestTwoTracks(t *testing.T) {
	single := NewManager(0, 9)
	assert.Nil(t, single.TrackCoverage(Track1))
	assert.Error(t, single.AddTrackMapping(Track1, &mapping.Mapping{Start: 0, Stop: 1}))
	assert.Equal(t, 0, single.Difference(0, true))

	m := NewManager(0, 9, WithTwoTracks())
	assert.True(t, m.IsTwoTracks())
	require.NoError(t, m.AddTrackMapping(Track1, &mapping.Mapping{Start: 0, Stop: 4, Fwd: true, Count: 3}))
	require.NoError(t, m.AddTrackMapping(Track2, &mapping.Mapping{Start: 2, Stop: 9, Fwd: true, Count: 5}))
	assert.Equal(t, 3, m.Difference(0, true))
	assert.Equal(t, 2, m.Difference(3, true))
	assert.Equal(t, 5, m.Difference(8, true))
	assert.Equal(t, 0, m.Difference(8, false))
}
