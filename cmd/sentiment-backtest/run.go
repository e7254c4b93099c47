package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/monitoring"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/config"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/reporting"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// outputFlags toggle the file artifacts of a run
type outputFlags struct {
	csv   bool
	excel bool
	json  bool
}

func (o *outputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.csv, "csv", false, "Write snapshot and transaction CSV files")
	cmd.Flags().BoolVar(&o.excel, "excel", false, "Write an XLSX workbook")
	cmd.Flags().BoolVar(&o.json, "json", false, "Write JSON results")
}

func (o *outputFlags) override(cmd *cobra.Command) func(*config.AppConfig) error {
	return func(cfg *config.AppConfig) error {
		if cmd.Flags().Changed("csv") {
			cfg.Output.CSV = o.csv
		}
		if cmd.Flags().Changed("excel") {
			cfg.Output.Excel = o.excel
		}
		if cmd.Flags().Changed("json") {
			cfg.Output.JSON = o.json
		}
		return nil
	}
}

func reportingConfig(cfg *config.AppConfig) reporting.ReportingConfig {
	return reporting.ReportingConfig{
		EnableConsole:   true,
		OutputDirectory: cfg.Output.Dir,
		CSVEnabled:      cfg.Output.CSV,
		ExcelEnabled:    cfg.Output.Excel,
		JSONEnabled:     cfg.Output.JSON,
	}
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	var flags backtestFlags
	var outputs outputFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single DCA vs fear/greed backtest",
		Example: `  sentiment-backtest run --start 2020-01-01 --end present --budget 500
  sentiment-backtest run --multipliers ef=2,f=1.5,n=1,g=0.5,eg=0.2 --excel
  sentiment-backtest run --sentiment-file data/fg.csv --price-file data/SPY.csv --csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, bcfg, err := loadConfig(cmd, opts, &flags, outputs.override(cmd))
			if err != nil {
				return err
			}

			engine, err := buildEngine(cmd.Context(), cfg, bcfg)
			if err != nil {
				return err
			}

			common.Progress("Simulating %d scheduled %s purchases from %s", engine.ScheduledDates(), bcfg.Weekday, bcfg.Start.Format(types.DateLayout))
			started := time.Now()
			result, err := engine.Run(bcfg.Multipliers)
			if err != nil {
				return err
			}
			monitoring.ObserveSimulation(time.Since(started))
			monitoring.UpdateSimulatedWeeks(result.TotalWeeks)

			summary := backtest.Summarize(result, bcfg, bcfg.Multipliers)
			manager := reporting.NewReportingManager(reportingConfig(cfg), cmd.OutOrStdout())
			dir := reporting.NewDefaultPathManager(cfg.Output.Dir).GetDefaultOutputDir(priceLabel(cfg), bcfg.Start, bcfg.End)
			written, err := manager.ReportRun(result, summary, dir)
			if err != nil {
				return err
			}

			common.Success("Backtest complete: %d weeks, %d files written", result.TotalWeeks, len(written))
			return nil
		},
	}

	flags.bind(cmd)
	outputs.bind(cmd)
	return cmd
}
