package main

import (
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/monitoring"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/data"
)

// newFetchCmd downloads both series once so later runs can use the csv
// sources offline
func newFetchCmd(opts *globalOptions) *cobra.Command {
	var flags backtestFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download sentiment and price history into the data directory",
		Example: `  sentiment-backtest fetch --start 2018-01-01 --tickers SPY,VOO
  sentiment-backtest fetch --symbol BTCUSDT --sentiment-source alternative`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, bcfg, err := loadConfig(cmd, opts, &flags)
			if err != nil {
				return err
			}

			dm, err := data.NewDataManager(cfg.SourceConfig())
			if err != nil {
				return err
			}
			dm.SetObserver(monitoring.RecordDataFetch)

			common.Progress("Fetching %s sentiment and %s prices", dm.SentimentProvider().Name(), dm.PriceProvider().Name())
			sentimentSeries, prices, err := dm.LoadSeries(cmd.Context(), bcfg.Start, bcfg.End)
			if err != nil {
				return err
			}

			sentimentPath := data.DataFilePath(cfg.Data.DataRoot, data.KindSentiment, "")
			if err := data.WriteSentimentCSV(sentimentPath, sentimentSeries); err != nil {
				return err
			}
			pricePath := data.DataFilePath(cfg.Data.DataRoot, data.KindPrices, priceLabel(cfg))
			if err := data.WritePriceCSV(pricePath, prices); err != nil {
				return err
			}

			common.Success("Saved %d sentiment points to %s", len(sentimentSeries), sentimentPath)
			common.Success("Saved %d prices to %s", len(prices), pricePath)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}
