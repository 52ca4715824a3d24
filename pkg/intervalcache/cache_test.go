package intervalcache

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoData = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i",
	"j", "k", "l", "m", "n", "o", "p", "q",
}

type fetchRecorder struct {
	calls []interval.Interval
}

func (f *fetchRecorder) fetchList(iv interval.Interval) ([]string, error) {
	f.calls = append(f.calls, iv)
	return demoData[iv.Start:iv.End], nil
}

func (f *fetchRecorder) fetchString(iv interval.Interval) (string, error) {
	f.calls = append(f.calls, iv)
	return "ACGTACGTACGTACGTACGT"[iv.Start:iv.End], nil
}

func TestGetDemoList(t *testing.T) {
	f := &fetchRecorder{}
	c, err := New[[]string](SliceStrategy[string]{}, f.fetchList)
	require.NoError(t, err)

	v, err := c.Get(interval.From(0, 0))
	assert.NoError(t, err)
	assert.Empty(t, v)
	assert.NotNil(t, v)
	assert.Empty(t, f.calls)

	v, err = c.Get(interval.From(0, 17))
	assert.NoError(t, err)
	if diff := cmp.Diff(demoData, v); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Len(t, f.calls, 1)

	// cached
	v, err = c.Get(interval.From(3, 9))
	assert.NoError(t, err)
	assert.Equal(t, demoData[3:9], v)
	assert.Len(t, f.calls, 1)

	// evicted entries are refetched transparently
	c.Purge()
	assert.Equal(t, 0, c.Len())
	v, err = c.Get(interval.From(0, 17))
	assert.NoError(t, err)
	assert.Equal(t, demoData, v)
	assert.Len(t, f.calls, 2)
}

func TestAddValue(t *testing.T) {
	cases := map[string]struct {
		existing    []interval.Interval
		iv          interval.Interval
		value       []string
		expectedErr error
	}{
		"Normal": {
			iv:    interval.From(0, 3),
			value: []string{"a", "b", "c"},
		},
		"Adjacent": {
			existing: []interval.Interval{interval.From(3, 5)},
			iv:       interval.From(0, 3),
			value:    []string{"a", "b", "c"},
		},
		"NilValue": {
			iv:          interval.From(0, 3),
			expectedErr: ErrNilValue,
		},
		"TooShort": {
			iv:          interval.From(0, 3),
			value:       []string{"a", "b"},
			expectedErr: ErrLengthMismatch,
		},
		"TooLong": {
			iv:          interval.From(0, 1),
			value:       []string{"a", "b"},
			expectedErr: ErrLengthMismatch,
		},
		"Inverted": {
			iv:          interval.From(3, 1),
			value:       []string{},
			expectedErr: ErrInvalidInterval,
		},
		"Overlap": {
			existing:    []interval.Interval{interval.From(2, 5)},
			iv:          interval.From(0, 3),
			value:       []string{"a", "b", "c"},
			expectedErr: ErrOverlap,
		},
		"Inside": {
			existing:    []interval.Interval{interval.From(0, 10)},
			iv:          interval.From(4, 5),
			value:       []string{"e"},
			expectedErr: ErrOverlap,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := &fetchRecorder{}
			c, err := New[[]string](SliceStrategy[string]{}, f.fetchList)
			require.NoError(t, err)

			for _, iv := range tc.existing {
				assert.NoError(t, c.AddValue(iv, demoData[iv.Start:iv.End]))
			}
			err = c.AddValue(tc.iv, tc.value)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), "got %v", err)
				assert.Equal(t, len(tc.existing), c.Len())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, len(tc.existing)+1, c.Len())
		})
	}
}

func TestGetConcatenatesInPositionOrder(t *testing.T) {
	f := &fetchRecorder{}
	c, err := New[string](StringStrategy{}, f.fetchString)
	require.NoError(t, err)

	assert.NoError(t, c.AddValue(interval.From(10, 14), "wxyz"))
	assert.NoError(t, c.AddValue(interval.From(2, 5), "abc"))
	assert.NoError(t, c.AddValue(interval.From(5, 10), "defgh"))

	v, err := c.Get(interval.From(2, 14))
	assert.NoError(t, err)
	assert.Equal(t, "abcdefghwxyz", v)
	assert.Empty(t, f.calls)
	assert.Equal(t, []interval.Interval{interval.From(2, 14)}, c.Entries())
	assert.Equal(t, Stats{Hits: 1, Merges: 1}, c.Stats())
}

func TestCachedValuesAreCopies(t *testing.T) {
	cases := map[string]struct {
		add bool
	}{
		"AddValue": {add: true},
		"Fetch":    {add: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			src := []string{"a", "b", "c"}
			c, err := New[[]string](SliceStrategy[string]{}, func(iv interval.Interval) ([]string, error) {
				return src[iv.Start:iv.End], nil
			})
			require.NoError(t, err)

			if tc.add {
				require.NoError(t, c.AddValue(interval.From(0, 3), src))
			} else {
				_, err := c.Get(interval.From(0, 3))
				require.NoError(t, err)
			}
			src[0] = "X"

			v, err := c.Get(interval.From(0, 3))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, v)

			v[1] = "Y"
			v, err = c.Get(interval.From(0, 3))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, v)
		})
	}
}

func TestGetFetchesExactlyTheMissingParts(t *testing.T) {
	f := &fetchRecorder{}
	c, err := New[string](StringStrategy{}, f.fetchString)
	require.NoError(t, err)

	assert.NoError(t, c.AddValue(interval.From(4, 8), "acgt"))
	assert.NoError(t, c.AddValue(interval.From(10, 12), "gt"))

	v, err := c.Get(interval.From(2, 14))
	assert.NoError(t, err)
	assert.Equal(t, 12, len(v))
	assert.Equal(t, "GTacgtACgtAC", v)
	assert.Equal(t, []interval.Interval{
		interval.From(2, 4),
		interval.From(8, 10),
		interval.From(12, 14),
	}, f.calls)
	assert.Equal(t, []interval.Interval{interval.From(2, 14)}, c.Entries())
}

func TestGetErrors(t *testing.T) {
	fetchErr := errors.New("connector closed")
	cases := map[string]struct {
		fetch FetchFn[string]
		iv    interval.Interval
		is    error
	}{
		"Inverted": {
			fetch: func(iv interval.Interval) (string, error) { return "", nil },
			iv:    interval.From(5, 2),
			is:    ErrInvalidInterval,
		},
		"FetchFailed": {
			fetch: func(iv interval.Interval) (string, error) { return "", fetchErr },
			iv:    interval.From(0, 2),
			is:    fetchErr,
		},
		"FetchWrongLength": {
			fetch: func(iv interval.Interval) (string, error) { return "A", nil },
			iv:    interval.From(0, 2),
			is:    ErrLengthMismatch,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := New[string](StringStrategy{}, tc.fetch)
			require.NoError(t, err)

			_, err = c.Get(tc.iv)
			assert.True(t, errors.Is(err, tc.is), "got %v", err)
		})
	}
}

func TestMergeAdjacentIntervals(t *testing.T) {
	cases := map[string]struct {
		entries  []interval.Interval
		merge    interval.Interval
		expected []interval.Interval
	}{
		"Run": {
			entries:  []interval.Interval{interval.From(0, 3), interval.From(3, 7), interval.From(7, 9)},
			merge:    interval.From(4, 5),
			expected: []interval.Interval{interval.From(0, 9)},
		},
		"GapStaysSeparate": {
			entries:  []interval.Interval{interval.From(0, 3), interval.From(3, 7), interval.From(8, 9)},
			merge:    interval.From(0, 9),
			expected: []interval.Interval{interval.From(0, 7), interval.From(8, 9)},
		},
		"OtherRunUntouched": {
			entries:  []interval.Interval{interval.From(0, 2), interval.From(2, 4), interval.From(10, 12), interval.From(12, 14)},
			merge:    interval.From(0, 1),
			expected: []interval.Interval{interval.From(0, 4), interval.From(10, 12), interval.From(12, 14)},
		},
		"NoRun": {
			entries:  []interval.Interval{interval.From(0, 2), interval.From(5, 7)},
			merge:    interval.From(0, 7),
			expected: []interval.Interval{interval.From(0, 2), interval.From(5, 7)},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := &fetchRecorder{}
			c, err := New[[]string](SliceStrategy[string]{}, f.fetchList)
			require.NoError(t, err)

			for _, iv := range tc.entries {
				require.NoError(t, c.AddValue(iv, demoData[iv.Start:iv.End]))
			}
			assert.NoError(t, c.MergeAdjacentIntervals(tc.merge))
			if diff := cmp.Diff(tc.expected, c.Entries()); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}

			// merging twice changes nothing
			assert.NoError(t, c.MergeAdjacentIntervals(tc.merge))
			if diff := cmp.Diff(tc.expected, c.Entries()); diff != "" {
				t.Errorf("%s: second merge -want, +got:\n%s", name, diff)
			}

			for _, iv := range tc.expected {
				v, err := c.Get(iv)
				assert.NoError(t, err)
				assert.Equal(t, demoData[iv.Start:iv.End], v)
			}
			assert.Empty(t, f.calls)
		})
	}
}

func TestCapacityEviction(t *testing.T) {
	f := &fetchRecorder{}
	c, err := New[[]string](SliceStrategy[string]{}, f.fetchList, WithCapacity(1))
	require.NoError(t, err)

	assert.NoError(t, c.AddValue(interval.From(0, 4), demoData[0:4]))
	assert.NoError(t, c.AddValue(interval.From(10, 12), demoData[10:12]))
	assert.Equal(t, []interval.Interval{interval.From(10, 12)}, c.Entries())
	assert.Equal(t, 1, c.Stats().Evictions)

	v, err := c.Get(interval.From(0, 17))
	assert.NoError(t, err)
	assert.Equal(t, demoData, v)
	assert.Equal(t, []interval.Interval{interval.From(0, 10), interval.From(12, 17)}, f.calls)
	assert.Equal(t, 1, c.Len())
}

func TestNew(t *testing.T) {
	_, err := New[string](StringStrategy{}, nil)
	assert.Error(t, err)

	_, err = New[string](nil, func(interval.Interval) (string, error) { return "", nil })
	assert.Error(t, err)

	_, err = New[string](StringStrategy{}, func(interval.Interval) (string, error) { return "", nil }, WithCapacity(0))
	assert.Error(t, err)
}
