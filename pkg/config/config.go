// Package config holds the application settings unmarshalled from viper,
// populated from the config file, the environment and the command line.
package config

import (
	"errors"
	"fmt"

	"github.com/henderiw/rxcore/pkg/classification"
	"github.com/henderiw/rxcore/pkg/interval"
	"github.com/henderiw/rxcore/pkg/intervalcache"
	"github.com/henderiw/rxcore/pkg/layout"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "RXCORE"

// CacheConfig are the settings of the reference sequence cache.
type CacheConfig struct {
	// maximum number of cached intervals
	Capacity int `mapstructure:"capacity"`
}

type LayoutConfig struct {
	// greedy or partition
	Strategy string `mapstructure:"strategy"`
}

type CoverageConfig struct {
	// label selector of the classes left out of the total coverage,
	// e.g. "class in (common)"
	Exclude string `mapstructure:"exclude"`
}

type BatchConfig struct {
	Threads int      `mapstructure:"threads"`
	Regions []string `mapstructure:"regions"`
}

// Config is the root-level settings struct.
type Config struct {
	// path to an indexed or plain BAM file
	BAM string `mapstructure:"bam"`
	// path to the reference FASTA file
	FASTA string `mapstructure:"fasta"`
	// MySQL data source name, used instead of BAM when set
	DSN string `mapstructure:"dsn"`
	// track read from the database
	Track int64 `mapstructure:"track"`
	// region as chr:start-end, 1-based and inclusive
	Region   string `mapstructure:"region"`
	LogLevel string `mapstructure:"log-level"`

	Cache    CacheConfig    `mapstructure:"cache"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Coverage CoverageConfig `mapstructure:"coverage"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.capacity", intervalcache.DefaultCapacity)
	v.SetDefault("layout.strategy", string(layout.Greedy))
	v.SetDefault("coverage.exclude", "")
	v.SetDefault("batch.threads", 4)
	v.SetDefault("log-level", logrus.InfoLevel.String())
}

// New returns the validated settings of v.
func New(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (r Config) Validate() error {
	var errs error
	if r.Cache.Capacity < 1 {
		errs = errors.Join(errs, fmt.Errorf("cache.capacity must be positive, got %d", r.Cache.Capacity))
	}
	if r.Batch.Threads < 1 {
		errs = errors.Join(errs, fmt.Errorf("batch.threads must be positive, got %d", r.Batch.Threads))
	}
	if _, err := r.Strategy(); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := r.Excluded(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("invalid coverage.exclude: %w", err))
	}
	if _, err := r.Level(); err != nil {
		errs = errors.Join(errs, err)
	}
	if r.Region != "" {
		if _, err := interval.ParseRegion(r.Region); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	for _, s := range r.Batch.Regions {
		if _, err := interval.ParseRegion(s); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (r Config) Strategy() (layout.Strategy, error) {
	return layout.ParseStrategy(r.Layout.Strategy)
}

func (r Config) Excluded() (classification.Set, error) {
	return classification.SetFromSelector(r.Coverage.Exclude)
}

func (r Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(r.LogLevel)
}

// ParsedRegion returns the region setting, an error if it is not set.
func (r Config) ParsedRegion() (interval.Region, error) {
	if r.Region == "" {
		return interval.Region{}, errors.New("no region given")
	}
	return interval.ParseRegion(r.Region)
}

// BatchRegions returns the regions of the batch settings, falling back to
// the single region setting.
func (r Config) BatchRegions() ([]interval.Region, error) {
	list := r.Batch.Regions
	if len(list) == 0 && r.Region != "" {
		list = []string{r.Region}
	}
	out := make([]interval.Region, 0, len(list))
	for _, s := range list {
		region, err := interval.ParseRegion(s)
		if err != nil {
			return nil, err
		}
		out = append(out, region)
	}
	return out, nil
}
