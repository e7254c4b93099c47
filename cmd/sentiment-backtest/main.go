// sentiment-backtest compares weekly DCA against a fear/greed-scaled DCA and
// searches for the multipliers that maximise the final portfolio value.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
)

const appName = "sentiment-backtest"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		common.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Fear/greed adaptive DCA backtester",
		Long: `sentiment-backtest simulates a fixed weekly purchase plan next to a plan
that scales each purchase by the fear/greed index, and searches for the
multipliers that produce the best final portfolio value.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				common.DefaultLogger.Level = common.LogLevelDebug
			}
			return common.LoadEnvFile(opts.envFile)
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before SDCA_* overrides")
	rootCmd.PersistentFlags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Output root directory (default: results)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newOptimizeCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newFetchCmd(opts))
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintVersion(cmd.OutOrStdout(), appName)
		},
	}
}
