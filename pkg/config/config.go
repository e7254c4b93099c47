package config

import (
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/schedule"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/data"
)

// Default values
const (
	DefaultWeeklyBudget   = 500.0
	DefaultInitialCash    = 0.0
	DefaultPurchaseDay    = "tuesday"
	DefaultStartDate      = "2020-01-01"
	DefaultEndDate        = schedule.PresentSentinel
	DefaultTransactionFee = 0.0
	DefaultExpenseRatio   = 0.0003 // VOO/SPY-class index fund

	DefaultEvaluations    = 400
	DefaultInitialPoints  = 25
	DefaultPopulationSize = 25
	DefaultSeed           = 42
	DefaultLowerBound     = 0.0
	DefaultUpperBound     = 2.0
	DefaultTopN           = 10
	DefaultReportFile     = "optimization_results.txt"

	DefaultTimeoutSeconds = 30
	DefaultRetries        = 2
	DefaultDataRoot       = "data"

	ResultsDir = "results"
	LogsDir    = "logs"
)

// DefaultMultipliers maps each sentiment category to its default scale factor
func DefaultMultipliers() map[string]float64 {
	return map[string]float64{
		sentiment.ExtremeFear.Key():  2.0,
		sentiment.Fear.Key():         1.5,
		sentiment.Neutral.Key():      1.0,
		sentiment.Greed.Key():        0.5,
		sentiment.ExtremeGreed.Key(): 0.2,
	}
}

// DataConfig selects where sentiment and prices come from
type DataConfig struct {
	SentimentSource string   `json:"sentiment_source" yaml:"sentiment_source"`
	SentimentFile   string   `json:"sentiment_file,omitempty" yaml:"sentiment_file,omitempty"`
	PriceSource     string   `json:"price_source" yaml:"price_source"`
	PriceFile       string   `json:"price_file,omitempty" yaml:"price_file,omitempty"`
	Tickers         []string `json:"tickers" yaml:"tickers"`
	BybitSymbol     string   `json:"bybit_symbol,omitempty" yaml:"bybit_symbol,omitempty"`
	BybitCategory   string   `json:"bybit_category,omitempty" yaml:"bybit_category,omitempty"`
	DataRoot        string   `json:"data_root" yaml:"data_root"`
	TimeoutSeconds  int      `json:"timeout_seconds" yaml:"timeout_seconds"`
	Retries         int      `json:"retries" yaml:"retries"`
}

// SearchConfig configures the multiplier search
type SearchConfig struct {
	Evaluations    int     `json:"evaluations" yaml:"evaluations"`
	InitialPoints  int     `json:"initial_points" yaml:"initial_points"`
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Seed           int64   `json:"seed" yaml:"seed"`
	LowerBound     float64 `json:"lower_bound" yaml:"lower_bound"`
	UpperBound     float64 `json:"upper_bound" yaml:"upper_bound"`
	TopN           int     `json:"top_n" yaml:"top_n"`
	Workers        int     `json:"workers" yaml:"workers"`
	ReportFile     string  `json:"report_file" yaml:"report_file"`
	Database       string  `json:"database,omitempty" yaml:"database,omitempty"`
	MetricsAddr    string  `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	LogFile        bool    `json:"log_file" yaml:"log_file"`
}

// OutputConfig controls which artifacts a run writes
type OutputConfig struct {
	Dir   string `json:"dir" yaml:"dir"`
	CSV   bool   `json:"csv" yaml:"csv"`
	Excel bool   `json:"excel" yaml:"excel"`
	JSON  bool   `json:"json" yaml:"json"`
}

// AppConfig is the full configuration surface of the backtester
type AppConfig struct {
	WeeklyBudget   float64            `json:"weekly_budget" yaml:"weekly_budget"`
	InitialCash    float64            `json:"initial_cash" yaml:"initial_cash"`
	PurchaseDay    string             `json:"purchase_day" yaml:"purchase_day"`
	StartDate      string             `json:"start_date" yaml:"start_date"`
	EndDate        string             `json:"end_date" yaml:"end_date"`
	Multipliers    map[string]float64 `json:"multipliers" yaml:"multipliers"`
	TransactionFee float64            `json:"transaction_fee" yaml:"transaction_fee"`
	ExpenseRatio   float64            `json:"expense_ratio" yaml:"expense_ratio"`

	Data   DataConfig   `json:"data" yaml:"data"`
	Search SearchConfig `json:"search" yaml:"search"`
	Output OutputConfig `json:"output" yaml:"output"`
}

// NewDefaultConfig returns the configuration used when nothing is overridden
func NewDefaultConfig() *AppConfig {
	return &AppConfig{
		WeeklyBudget:   DefaultWeeklyBudget,
		InitialCash:    DefaultInitialCash,
		PurchaseDay:    DefaultPurchaseDay,
		StartDate:      DefaultStartDate,
		EndDate:        DefaultEndDate,
		Multipliers:    DefaultMultipliers(),
		TransactionFee: DefaultTransactionFee,
		ExpenseRatio:   DefaultExpenseRatio,
		Data: DataConfig{
			SentimentSource: data.SourceFinHacker,
			PriceSource:     data.SourceYahoo,
			Tickers:         append([]string(nil), data.DefaultTickers...),
			BybitCategory:   "spot",
			DataRoot:        DefaultDataRoot,
			TimeoutSeconds:  DefaultTimeoutSeconds,
			Retries:         DefaultRetries,
		},
		Search: SearchConfig{
			Evaluations:    DefaultEvaluations,
			InitialPoints:  DefaultInitialPoints,
			PopulationSize: DefaultPopulationSize,
			Seed:           DefaultSeed,
			LowerBound:     DefaultLowerBound,
			UpperBound:     DefaultUpperBound,
			TopN:           DefaultTopN,
			ReportFile:     DefaultReportFile,
		},
		Output: OutputConfig{
			Dir: ResultsDir,
		},
	}
}

// MultiplierConfig converts the multiplier map into the engine representation
func (c *AppConfig) MultiplierConfig() (sentiment.MultiplierConfig, error) {
	return sentiment.FromMap(c.Multipliers)
}

// SourceConfig converts the data section for the data package
func (c *AppConfig) SourceConfig() data.SourceConfig {
	return data.SourceConfig{
		SentimentSource: c.Data.SentimentSource,
		SentimentFile:   c.Data.SentimentFile,
		PriceSource:     c.Data.PriceSource,
		PriceFile:       c.Data.PriceFile,
		Tickers:         c.Data.Tickers,
		BybitSymbol:     c.Data.BybitSymbol,
		BybitCategory:   c.Data.BybitCategory,
		DataRoot:        c.Data.DataRoot,
		HTTP: data.HTTPOptions{
			Timeout: time.Duration(c.Data.TimeoutSeconds) * time.Second,
			Retries: c.Data.Retries,
		},
	}
}

// ToBacktestConfig resolves weekday, dates and multipliers. now resolves the
// "present" end date.
func (c *AppConfig) ToBacktestConfig(now time.Time) (backtest.Config, error) {
	var cfg backtest.Config

	weekday, err := schedule.ParseWeekday(c.PurchaseDay)
	if err != nil {
		return cfg, err
	}
	start, err := schedule.ParseDate(c.StartDate)
	if err != nil {
		return cfg, err
	}
	end, err := schedule.ResolveEnd(c.EndDate, now)
	if err != nil {
		return cfg, err
	}
	mult, err := c.MultiplierConfig()
	if err != nil {
		return cfg, err
	}

	cfg = backtest.Config{
		WeeklyBudget:       c.WeeklyBudget,
		InitialCash:        c.InitialCash,
		Weekday:            weekday,
		Start:              start,
		End:                end,
		TransactionFee:     c.TransactionFee,
		AnnualExpenseRatio: c.ExpenseRatio,
		Multipliers:        mult,
	}
	return cfg, cfg.Validate()
}
