package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-dls/batch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNoResults = errors.New("no measurement could be analysed")

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] run.yaml",
		Short: "Analyse every measurement of a batch description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, v, args[0])
		},
	}

	cmd.Flags().Int("workers", 0, "concurrent analyses (overrides config)")
	cmd.Flags().String("parquet", "", "result file (overrides config)")
	cmd.Flags().String("compression", "", "parquet codec: snappy, zstd, gzip, brotli, lz4, none")
	cmd.Flags().String("plots", "", "directory for diagnostic plots (overrides config)")
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func runAnalyze(cmd *cobra.Command, v *viper.Viper, path string) error {
	log, err := newLogger(cmd, v)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := batch.LoadConfig(path)
	if err != nil {
		return err
	}
	applyOverrides(cfg, v)
	if err := cfg.Validate(); err != nil {
		return err
	}

	jobs, err := cfg.Jobs()
	if err != nil {
		return err
	}
	log.Info("batch planned", zap.String("config", path), zap.Int("jobs", len(jobs)),
		zap.Strings("conditions", cfg.ConditionNames()))

	opts := append(cfg.RunnerOptions(), batch.WithLogger(log))
	report, err := batch.NewRunner(opts...).Run(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)

	if out := cfg.Output.Parquet; out != "" && len(report.Results) > 0 {
		if err := batch.WriteParquet(out, cfg.Output.Compression, report); err != nil {
			return err
		}
		log.Info("results written", zap.String("path", out), zap.Int("rows", len(report.Rows())))
	}

	if len(report.Results) == 0 {
		return fmt.Errorf("%w: %w", errNoResults, report.Err())
	}
	return nil
}

func applyOverrides(cfg *batch.Config, v *viper.Viper) {
	if n := v.GetInt("workers"); n > 0 {
		cfg.Workers = n
	}
	if s := v.GetString("parquet"); s != "" {
		cfg.Output.Parquet = s
	}
	if s := v.GetString("compression"); s != "" {
		cfg.Output.Compression = s
	}
	if s := v.GetString("plots"); s != "" {
		cfg.Output.Plots = s
	}
}

func printReport(w io.Writer, report batch.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONDITION\tREPLICATE\tTIME POINT\tROWS\tG0\tWINDOW (us)\tMERGED\tDURATION")
	for _, res := range report.Results {
		t := res.Table
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.4f\t%s\t%t\t%s\n",
			res.Key.Condition, res.Key.Replicate, res.Key.TimePoint, t.Len(), t.G0,
			formatWindow(t.Window.Start, t.Window.End), t.Merged, res.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()

	for _, f := range report.Failures {
		fmt.Fprintf(w, "FAILED %v\n", f)
	}
}

func formatWindow(start, end float64) string {
	if start == 0 && end == 0 {
		return "-"
	}
	return fmt.Sprintf("[%g, %g]", start, end)
}
