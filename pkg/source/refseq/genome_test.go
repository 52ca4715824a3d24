package refseq

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFASTA = `>chr1 first chromosome
ACGTACGTAC
ggtt
>chr2
TTTT
`

func TestRead(t *testing.T) {
	g, err := Read(strings.NewReader(testFASTA))
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, g.Names())

	n, ok := g.Len("chr1")
	assert.True(t, ok)
	assert.Equal(t, 14, n)

	cases := map[string]struct {
		ref         string
		iv          interval.Interval
		expected    string
		expectedErr bool
	}{
		"Start":      {ref: "chr1", iv: interval.From(0, 4), expected: "ACGT"},
		"LineBreak":  {ref: "chr1", iv: interval.From(8, 12), expected: "ACGG"},
		"Empty":      {ref: "chr2", iv: interval.From(2, 2), expected: ""},
		"PastEnd":    {ref: "chr2", iv: interval.From(2, 5), expectedErr: true},
		"UnknownRef": {ref: "chr3", iv: interval.From(0, 1), expectedErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := g.Sequence(tc.ref, tc.iv)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, s)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(testFASTA), 0o644))
	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, g.Names())

	_, err = Load(filepath.Join(t.TempDir(), "missing.fa"))
	assert.Error(t, err)
}

func TestSequenceCache(t *testing.T) {
	g, err := Read(strings.NewReader(testFASTA))
	require.NoError(t, err)

	c, err := NewSequenceCache(g, "chr1")
	require.NoError(t, err)

	s, err := c.Get(interval.From(2, 6))
	require.NoError(t, err)
	assert.Equal(t, "GTAC", s)

	s, err = c.Get(interval.From(4, 10))
	require.NoError(t, err)
	assert.Equal(t, "ACGTAC", s)
	assert.Equal(t, []interval.Interval{interval.From(2, 10)}, c.Entries())

	_, err = c.Get(interval.From(10, 20))
	assert.Error(t, err)

	_, err = NewSequenceCache(g, "chrX")
	assert.True(t, errors.Is(err, ErrUnknownReference))
}
