package validation

import (
	"context"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// Package validation checks searched multipliers on weeks the search never saw

// Optimizer searches multipliers over the window of cfg
type Optimizer func(ctx context.Context, cfg backtest.Config) (*optimization.SearchReport, error)

// Backtester runs one simulation over the window of cfg and summarizes it
type Backtester func(cfg backtest.Config, multipliers sentiment.MultiplierConfig) (*backtest.Summary, error)

// DataSplitter defines the interface for splitting a purchase schedule into train/test windows
type DataSplitter interface {
	SplitByRatio(dates []time.Time, ratio float64) ([]time.Time, []time.Time)
	CreateRollingFolds(dates []time.Time, trainWeeks, testWeeks, rollWeeks int) []WalkForwardFold
}

// WalkForwardConfig holds the configuration for walk-forward validation
type WalkForwardConfig struct {
	Rolling    bool
	SplitRatio float64
	TrainWeeks int
	TestWeeks  int
	RollWeeks  int
}

// WalkForwardFold is one train/test pair of scheduled-date windows
type WalkForwardFold struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
	TrainWeeks int
	TestWeeks  int
}

// WalkForwardResults holds the results for a single fold
type WalkForwardResults struct {
	Fold         int
	Window       WalkForwardFold
	BestParams   sentiment.MultiplierConfig
	Search       *optimization.SearchReport
	TrainSummary *backtest.Summary
	TestSummary  *backtest.Summary
}

// WalkForwardSummary holds the summary of all walk-forward validation results
type WalkForwardSummary struct {
	Results            []WalkForwardResults
	AverageTrainReturn float64
	AverageTestReturn  float64
	AverageTrainExcess float64
	AverageTestExcess  float64
	ExcessDegradation  float64
	IsRobust           bool
	OverfittingRisk    string
}
