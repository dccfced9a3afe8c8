// Command dlsmicro converts DLS correlation exports into microrheology.
//
// Usage:
//
//	dlsmicro analyze [flags] run.yaml
//	dlsmicro summary [flags] results.parquet
//
// Examples:
//
//	dlsmicro analyze --workers 8 --parquet results.parquet run.yaml
//	dlsmicro summary --quantity g_loss --level 95 results.parquet
//	DLSMICRO_LOG_LEVEL=debug dlsmicro analyze run.yaml
//
// Global flags may also be set through DLSMICRO_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cwbudde/algo-dls/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "dlsmicro",
		Short:         "DLS microrheology analysis",
		Long:          "Converts DLS correlation exports into mean-squared displacements and shear moduli.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "console", "log format: console or json")

	v.SetEnvPrefix("DLSMICRO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newAnalyzeCmd(v), newSummaryCmd(v))
	return root
}

func newLogger(cmd *cobra.Command, v *viper.Viper) (*zap.Logger, error) {
	return logging.New(
		logging.WithLevel(v.GetString("log-level")),
		logging.WithFormat(v.GetString("log-format")),
		logging.WithOutput(cmd.ErrOrStderr()),
	)
}
