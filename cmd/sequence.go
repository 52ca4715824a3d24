package cmd

import (
	"errors"
	"fmt"

	"github.com/henderiw/rxcore/pkg/intervalcache"
	"github.com/henderiw/rxcore/pkg/source/refseq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sequenceCmd prints reference bases through the sequence cache
var sequenceCmd = &cobra.Command{
	Use:   "sequence [region...]",
	Short: "Print the reference sequence of one or more regions",
	Long: `Reads the reference FASTA and prints the bases of each region. The
bases are served from an interval cache, overlapping regions only read
the parts not seen before.`,
	RunE: runSequence,
}

func init() {
	rootCmd.AddCommand(sequenceCmd)

	sequenceCmd.Flags().Int("capacity", intervalcache.DefaultCapacity, "maximum number of cached intervals")
	viper.BindPFlag("cache.capacity", sequenceCmd.Flags().Lookup("capacity"))
}

func runSequence(cmd *cobra.Command, args []string) error {
	if cfg.FASTA == "" {
		return errors.New("no --fasta given")
	}
	list := args
	if len(list) == 0 {
		list = []string{cfg.Region}
	}

	g, err := refseq.Load(cfg.FASTA)
	if err != nil {
		return err
	}

	caches := map[string]intervalcache.Cache[string]{}
	out := cmd.OutOrStdout()
	for _, s := range list {
		c := cfg
		c.Region = s
		region, err := c.ParsedRegion()
		if err != nil {
			return err
		}
		cache, ok := caches[region.Ref]
		if !ok {
			cache, err = refseq.NewSequenceCache(g, region.Ref,
				intervalcache.WithCapacity(cfg.Cache.Capacity), intervalcache.WithLogger(log))
			if err != nil {
				return err
			}
			caches[region.Ref] = cache
		}
		seq, err := cache.Get(region.Interval)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, ">%s\n%s\n", region, seq)
	}
	for ref, cache := range caches {
		log.WithField("ref", ref).WithField("stats", fmt.Sprintf("%+v", cache.Stats())).Debug("sequence cache")
	}
	return nil
}
