package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// coverageCmd prints the per position coverage of a region
var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Print the total coverage of a region per position and strand",
	Long: `Counts the mappings of the region per mapping class and prints the
summed coverage of all classes not excluded by --exclude, a label
selector over the class labels, e.g. "class in (common)" or "unique=true".`,
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)

	coverageCmd.Flags().String("exclude", "", "label selector of the classes left out")
	viper.BindPFlag("coverage.exclude", coverageCmd.Flags().Lookup("exclude"))
}

func runCoverage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	region, err := cfg.ParsedRegion()
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

	cm, err := src.Coverage(ctx, region)
	if err != nil {
		return err
	}
	total := cm.TotalCoverage(excluded)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "# highest %d, excluded %s\n", cm.ComputeHighestCoverage(excluded), excluded)
	fmt.Fprintln(w, "ref\tpos\tfwd\trev")
	for pos := cm.LeftBound(); pos <= cm.RightBound(); pos++ {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", region.Ref, pos+1, total.Coverage(pos, true), total.Coverage(pos, false))
	}
	return w.Flush()
}
