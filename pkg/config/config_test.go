package config

import (
	"strings"
	"testing"

	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/layout"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	c, err := New(v)
	require.NoError(t, err)

	assert.Equal(t, 64, c.Cache.Capacity)
	assert.Equal(t, 4, c.Batch.Threads)
	s, err := c.Strategy()
	assert.NoError(t, err)
	assert.Equal(t, layout.Greedy, s)
	lvl, err := c.Level()
	assert.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, lvl)
	excluded, err := c.Excluded()
	assert.NoError(t, err)
	assert.True(t, excluded.IsEmpty())
}

func TestConfigFile(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
bam: reads.bam
region: chr1:1,001-2,000
log-level: debug
layout:
  strategy: partition
coverage:
  exclude: class in (common)
batch:
  threads: 2
  regions:
  - chr1:1-10
  - chr2:11-20
`)))
	c, err := New(v)
	require.NoError(t, err)

	assert.Equal(t, "reads.bam", c.BAM)
	assert.Equal(t, 64, c.Cache.Capacity)
	assert.Equal(t, 2, c.Batch.Threads)

	region, err := c.ParsedRegion()
	require.NoError(t, err)
	assert.Equal(t, interval.Region{Ref: "chr1", Interval: interval.From(1000, 2000)}, region)

	s, _ := c.Strategy()
	assert.Equal(t, layout.Partition, s)
	excluded, _ := c.Excluded()
	assert.Equal(t, classification.NewSet(classification.CommonMatch), excluded)

	regions, err := c.BatchRegions()
	require.NoError(t, err)
	assert.Len(t, regions, 2)
	assert.Equal(t, "chr2", regions[1].Ref)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		key   string
		value any
	}{
		"Capacity":  {key: "cache.capacity", value: 0},
		"Threads":   {key: "batch.threads", value: -1},
		"Strategy":  {key: "layout.strategy", value: "random"},
		"Exclude":   {key: "coverage.exclude", value: "class in ("},
		"LogLevel":  {key: "log-level", value: "loud"},
		"Region":    {key: "region", value: "chr1"},
		"BatchList": {key: "batch.regions", value: []string{"chr1:5-1"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tc.key, tc.value)
			_, err := New(v)
			assert.Error(t, err)
		})
	}
}

func TestBatchRegionsFallback(t *testing.T) {
	c := Config{Region: "chr1:1-10"}
	regions, err := c.BatchRegions()
	require.NoError(t, err)
	assert.Equal(t, []interval.Region{{Ref: "chr1", Interval: interval.From(0, 10)}}, regions)

	_, err = Config{}.ParsedRegion()
	assert.Error(t, err)
}
