package cmd

import (
	"fmt"

	"github.com/henderiw/rxcore/pkg/layout"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// layoutCmd draws the mappings of a region as layered blocks
var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Draw the mappings of a region as an alignment layout",
	Long: `Packs the mappings of the region into layers of non-overlapping
blocks, forward strand first, and draws one line per layer.

Inserted read bases widen the drawing, the region is cut at the last
position that still fits.`,
	RunE: runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().String("strategy", string(layout.Greedy), "packing strategy, greedy or partition")
	layoutCmd.Flags().Bool("pairs", false, "draw read pairs as one block")
	viper.BindPFlag("layout.strategy", layoutCmd.Flags().Lookup("strategy"))
}

func runLayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	region, err := cfg.ParsedRegion()
	if err != nil {
		return err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	pairs, _ := cmd.Flags().GetBool("pairs")

	src, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := []layout.Option{layout.WithStrategy(strategy), layout.WithLogger(log)}
	var l *layout.Layout
	if pairs {
		groups, err := src.ReadPairGroups(ctx, region)
		if err != nil {
			return err
		}
		l, err = layout.NewReadPairLayout(region.First(), region.Last(), groups, opts...)
		if err != nil {
			return err
		}
	} else {
		mappings, err := src.Mappings(ctx, region)
		if err != nil {
			return err
		}
		l, err = layout.New(region.First(), region.Last(), mappings, opts...)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s:%d-%d fwd=%d rev=%d\n", region.Ref, l.AbsStart()+1, l.AbsStop()+1, len(l.Forward()), len(l.Reverse()))
	return l.Render(out)
}
