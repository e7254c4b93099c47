package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/monitoring"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/timeseries"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/config"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/data"
)

// globalOptions holds the persistent flags of the root command
type globalOptions struct {
	configFile string
	envFile    string
	outputDir  string
	verbose    bool
}

// backtestFlags are the run parameters shared by run, optimize and fetch.
// Only flags set on the command line override the loaded configuration.
type backtestFlags struct {
	start        string
	end          string
	weekday      string
	budget       float64
	initialCash  float64
	fee          float64
	expenseRatio float64
	multipliers  string

	sentimentSource string
	sentimentFile   string
	priceSource     string
	priceFile       string
	tickers         string
	symbol          string
	dataRoot        string
}

func (f *backtestFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.start, "start", config.DefaultStartDate, "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", config.DefaultEndDate, "End date (YYYY-MM-DD or \"present\")")
	fs.StringVar(&f.weekday, "weekday", config.DefaultPurchaseDay, "Purchase weekday (monday..sunday)")
	fs.Float64Var(&f.budget, "budget", config.DefaultWeeklyBudget, "Weekly budget")
	fs.Float64Var(&f.initialCash, "initial-cash", config.DefaultInitialCash, "Initial cash per strategy")
	fs.Float64Var(&f.fee, "fee", config.DefaultTransactionFee, "Flat fee per purchase")
	fs.Float64Var(&f.expenseRatio, "expense-ratio", config.DefaultExpenseRatio, "Annual fund expense ratio")
	fs.StringVar(&f.multipliers, "multipliers", "", "Multipliers, e.g. ef=2,f=1.5,n=1,g=0.5,eg=0.2")

	fs.StringVar(&f.sentimentSource, "sentiment-source", data.SourceFinHacker, "Sentiment source: finhacker, alternative or csv")
	fs.StringVar(&f.sentimentFile, "sentiment-file", "", "Sentiment CSV file (date,value)")
	fs.StringVar(&f.priceSource, "price-source", data.SourceYahoo, "Price source: yahoo, bybit or csv")
	fs.StringVar(&f.priceFile, "price-file", "", "Price CSV file (date,price)")
	fs.StringVar(&f.tickers, "tickers", strings.Join(data.DefaultTickers, ","), "Comma separated tickers, tried in order")
	fs.StringVar(&f.symbol, "symbol", "", "Bybit symbol, e.g. BTCUSDT")
	fs.StringVar(&f.dataRoot, "data-root", config.DefaultDataRoot, "Directory of fetched CSV series")
}

// apply copies explicitly set flags onto cfg
func (f *backtestFlags) apply(cmd *cobra.Command, cfg *config.AppConfig) error {
	changed := cmd.Flags().Changed

	if changed("start") {
		cfg.StartDate = f.start
	}
	if changed("end") {
		cfg.EndDate = f.end
	}
	if changed("weekday") {
		cfg.PurchaseDay = f.weekday
	}
	if changed("budget") {
		cfg.WeeklyBudget = f.budget
	}
	if changed("initial-cash") {
		cfg.InitialCash = f.initialCash
	}
	if changed("fee") {
		cfg.TransactionFee = f.fee
	}
	if changed("expense-ratio") {
		cfg.ExpenseRatio = f.expenseRatio
	}
	if changed("multipliers") {
		m, err := sentiment.ParseMultipliers(f.multipliers)
		if err != nil {
			return fmt.Errorf("invalid --multipliers: %w", err)
		}
		cfg.Multipliers = m.ToMap()
	}
	if changed("sentiment-source") {
		cfg.Data.SentimentSource = f.sentimentSource
	}
	if changed("sentiment-file") {
		cfg.Data.SentimentFile = f.sentimentFile
		if !changed("sentiment-source") {
			cfg.Data.SentimentSource = data.SourceCSV
		}
	}
	if changed("price-source") {
		cfg.Data.PriceSource = f.priceSource
	}
	if changed("price-file") {
		cfg.Data.PriceFile = f.priceFile
		if !changed("price-source") {
			cfg.Data.PriceSource = data.SourceCSV
		}
	}
	if changed("tickers") {
		cfg.Data.Tickers = config.SplitList(f.tickers)
	}
	if changed("symbol") {
		cfg.Data.BybitSymbol = strings.ToUpper(f.symbol)
		if !changed("price-source") {
			cfg.Data.PriceSource = data.SourceBybit
		}
	}
	if changed("data-root") {
		cfg.Data.DataRoot = f.dataRoot
	}
	return nil
}

// loadConfig merges defaults, config file, environment and flags, then
// validates the result. overrides run after the shared flags are applied.
func loadConfig(cmd *cobra.Command, opts *globalOptions, flags *backtestFlags, overrides ...func(*config.AppConfig) error) (*config.AppConfig, backtest.Config, error) {
	mgr := config.NewManager()
	cfg, err := mgr.LoadConfig(opts.configFile)
	if err != nil {
		return nil, backtest.Config{}, err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return nil, backtest.Config{}, err
	}
	for _, override := range overrides {
		if err := override(cfg); err != nil {
			return nil, backtest.Config{}, err
		}
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	v := common.NewFlagValidator().
		ValidateChoice("sentiment-source", cfg.Data.SentimentSource, data.SentimentSources).
		ValidateChoice("price-source", cfg.Data.PriceSource, data.PriceSources)
	if strings.EqualFold(cfg.Data.SentimentSource, data.SourceCSV) {
		v.ValidateFile("sentiment", cfg.Data.SentimentFile, false)
	}
	if strings.EqualFold(cfg.Data.PriceSource, data.SourceCSV) {
		v.ValidateFile("price", cfg.Data.PriceFile, false)
	}
	if err := v.GetError(); err != nil {
		return nil, backtest.Config{}, err
	}

	if err := mgr.Validate(cfg); err != nil {
		return nil, backtest.Config{}, err
	}
	bcfg, err := cfg.ToBacktestConfig(time.Now())
	if err != nil {
		return nil, backtest.Config{}, err
	}
	return cfg, bcfg, nil
}

// buildStore loads both series for the window into a lookup store
func buildStore(ctx context.Context, cfg *config.AppConfig, bcfg backtest.Config) (*timeseries.Store, error) {
	dm, err := data.NewDataManager(cfg.SourceConfig())
	if err != nil {
		return nil, err
	}
	dm.SetObserver(monitoring.RecordDataFetch)

	common.Progress("Loading sentiment from %s and prices from %s", dm.SentimentProvider().Name(), dm.PriceProvider().Name())
	sentimentSeries, prices, err := dm.LoadSeries(ctx, bcfg.Start, bcfg.End)
	if err != nil {
		return nil, err
	}
	common.Info("Loaded %d sentiment points and %d prices", len(sentimentSeries), len(prices))

	return timeseries.NewStore(sentimentSeries, prices)
}

// buildEngine loads both series for the window and prepares the simulator
func buildEngine(ctx context.Context, cfg *config.AppConfig, bcfg backtest.Config) (*backtest.Engine, error) {
	store, err := buildStore(ctx, cfg, bcfg)
	if err != nil {
		return nil, err
	}
	return backtest.NewEngine(bcfg, store)
}

// priceLabel names the price series in output directories
func priceLabel(cfg *config.AppConfig) string {
	if strings.EqualFold(cfg.Data.PriceSource, data.SourceBybit) && cfg.Data.BybitSymbol != "" {
		return cfg.Data.BybitSymbol
	}
	if len(cfg.Data.Tickers) > 0 {
		return cfg.Data.Tickers[0]
	}
	return ""
}
