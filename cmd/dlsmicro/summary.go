package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/cwbudde/algo-dls/plot"
	"github.com/cwbudde/algo-dls/stats/replicate"
	"github.com/cwbudde/algo-dls/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSummaryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [flags] results.parquet",
		Short: "Aggregate replicates with bootstrap confidence bands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, v, args[0])
		},
	}

	cmd.Flags().String("quantity", "g_loss", "column: msd, alpha, g_storage, g_loss")
	cmd.Flags().Float64("level", 68, "confidence level in percent")
	cmd.Flags().Int("resamples", 1000, "bootstrap resamples")
	cmd.Flags().Uint64("seed", 1, "bootstrap seed")
	cmd.Flags().Int("time-point", -1, "restrict to one time point (-1 for all)")
	cmd.Flags().Int("every", 1, "print every n-th lag")
	cmd.Flags().String("plot", "", "write a PNG of all conditions to this path")
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func parseQuantity(name string) (replicate.Quantity, error) {
	for _, q := range []replicate.Quantity{replicate.MSD, replicate.Alpha, replicate.Storage, replicate.Loss} {
		if q.String() == name {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown quantity %q", name)
}

func runSummary(cmd *cobra.Command, v *viper.Viper, path string) error {
	q, err := parseQuantity(v.GetString("quantity"))
	if err != nil {
		return err
	}

	rows, err := store.ReadFile(path)
	if err != nil {
		return err
	}

	opts := []replicate.Option{
		replicate.WithLevel(v.GetFloat64("level")),
		replicate.WithResamples(v.GetInt("resamples")),
		replicate.WithSeed(v.GetUint64("seed")),
		replicate.WithTimePoint(v.GetInt("time-point")),
	}

	var bands []plot.Band
	var summaries []namedSummary
	for _, cond := range conditions(rows) {
		s, err := replicate.Summarize(rows, cond, q, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", cond, err)
		}
		summaries = append(summaries, namedSummary{cond, s})
		bands = append(bands, plot.Band{Name: cond, X: s.X, Median: s.Center, Lower: s.Lower, Upper: s.Upper})
	}

	printSummaries(cmd.OutOrStdout(), summaries, max(v.GetInt("every"), 1))

	if out := v.GetString("plot"); out != "" {
		xName := "lag (us)"
		if q == replicate.Storage || q == replicate.Loss {
			xName = "omega (rad/s)"
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := plot.Bands(f, xName, q.String(), bands); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}

type namedSummary struct {
	condition string
	replicate.Summary
}

// conditions returns condition names in order of first appearance.
func conditions(rows []store.Row) []string {
	var names []string
	for _, r := range rows {
		if !slices.Contains(names, r.Condition) {
			names = append(names, r.Condition)
		}
	}
	return names
}

func printSummaries(w io.Writer, summaries []namedSummary, every int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONDITION\tREPLICATES\tX\tCENTER\tLOWER\tUPPER")
	for _, s := range summaries {
		for i := 0; i < len(s.X); i += every {
			fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n",
				s.condition, s.Replicates, s.X[i], s.Center[i], s.Lower[i], s.Upper[i])
		}
	}
	_ = tw.Flush()
}
