package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/henderiw/rxcore/pkg/batch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// batchCmd computes the coverage of many regions in parallel
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compute the coverage of many regions in parallel",
	Long: `Computes the coverage of every region given with --regions or in the
batch.regions config list and reports the outcome and the highest
coverage of each region. Failed regions do not stop the others.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("threads", "t", 4, "number of regions computed at once")
	batchCmd.Flags().StringSlice("regions", nil, "regions as chr:start-end, 1-based")
	viper.BindPFlag("batch.threads", batchCmd.Flags().Lookup("threads"))
	viper.BindPFlag("batch.regions", batchCmd.Flags().Lookup("regions"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	regions, err := cfg.BatchRegions()
	if err != nil {
		return err
	}
	excluded, err := cfg.Excluded()
	if err != nil {
		return err
	}

	src, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	runner := batch.New(batch.WithThreads(cfg.Batch.Threads), batch.WithLogger(log))
	defer runner.Close()
	results, runErr := runner.Coverage(ctx, src, regions)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "region\tstatus\thighest\terror")
	for _, res := range results {
		highest, msg := 0, ""
		if res.Manager != nil {
			highest = res.Manager.ComputeHighestCoverage(excluded)
		}
		if res.Err != nil {
			msg = res.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", res.Region, res.Status, highest, msg)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}
