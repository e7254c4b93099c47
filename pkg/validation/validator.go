package validation

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/schedule"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// Degradation thresholds, in percent of the train excess return
const (
	HighRiskDegradation     = 30.0
	ModerateRiskDegradation = 15.0
)

// DefaultWalkForwardValidator implements walk-forward validation
type DefaultWalkForwardValidator struct {
	splitter   DataSplitter
	optimizer  Optimizer
	backtester Backtester
	out        io.Writer
}

// NewDefaultWalkForwardValidator creates a new walk-forward validator
func NewDefaultWalkForwardValidator(optimizer Optimizer, backtester Backtester) *DefaultWalkForwardValidator {
	return &DefaultWalkForwardValidator{
		splitter:   NewDefaultDataSplitter(),
		optimizer:  optimizer,
		backtester: backtester,
		out:        os.Stdout,
	}
}

// SetOutput redirects the progress output
func (v *DefaultWalkForwardValidator) SetOutput(w io.Writer) { v.out = w }

// Validate searches multipliers on each train window and replays them on the
// following test window
func (v *DefaultWalkForwardValidator) Validate(ctx context.Context, cfg backtest.Config, wfConfig WalkForwardConfig) (*WalkForwardSummary, error) {
	if v.optimizer == nil || v.backtester == nil {
		return nil, apperrors.NewConfigurationError("validation", "Validate", "optimizer and backtester are required")
	}

	dates, err := schedule.Generate(cfg.Start, cfg.End, cfg.Weekday)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(v.out, "\n🔄 ================ WALK-FORWARD VALIDATION ================")

	var folds []WalkForwardFold
	if wfConfig.Rolling {
		fmt.Fprintf(v.out, "Mode: Rolling Walk-Forward\n")
		fmt.Fprintf(v.out, "Train: %d weeks, Test: %d weeks, Roll: %d weeks\n", wfConfig.TrainWeeks, wfConfig.TestWeeks, wfConfig.RollWeeks)
		folds = v.splitter.CreateRollingFolds(dates, wfConfig.TrainWeeks, wfConfig.TestWeeks, wfConfig.RollWeeks)
	} else {
		fmt.Fprintf(v.out, "Mode: Simple Holdout\n")
		fmt.Fprintf(v.out, "Split: %.0f%% train, %.0f%% test\n", wfConfig.SplitRatio*100, (1-wfConfig.SplitRatio)*100)
		if fold, ok := holdoutFold(v.splitter, dates, wfConfig.SplitRatio); ok {
			folds = append(folds, fold)
		}
	}
	if len(folds) == 0 {
		return nil, apperrors.NewConstraintError("validation", "Validate",
			fmt.Sprintf("not enough scheduled weeks (%d) for walk-forward validation", len(dates)))
	}
	fmt.Fprintf(v.out, "Created %d folds\n\n", len(folds))

	results := make([]WalkForwardResults, 0, len(folds))
	for i, fold := range folds {
		fmt.Fprintf(v.out, "📊 Fold %d/%d: Train %s → %s, Test %s → %s\n",
			i+1, len(folds),
			fold.TrainStart.Format(types.DateLayout),
			fold.TrainEnd.Format(types.DateLayout),
			fold.TestStart.Format(types.DateLayout),
			fold.TestEnd.Format(types.DateLayout))

		result, err := v.runFold(ctx, cfg, fold)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i+1, err)
		}
		result.Fold = i + 1
		results = append(results, result)

		fmt.Fprintf(v.out, "  Best:  %s\n", result.BestParams)
		fmt.Fprintf(v.out, "  Train: %.2f%% return, %+.2f%% vs DCA\n",
			result.TrainSummary.Sentiment.ReturnPct, result.TrainSummary.ExcessReturnPct)
		fmt.Fprintf(v.out, "  Test:  %.2f%% return, %+.2f%% vs DCA\n\n",
			result.TestSummary.Sentiment.ReturnPct, result.TestSummary.ExcessReturnPct)
	}

	summary := calculateSummary(results)
	v.printSummary(summary)
	return summary, nil
}

func (v *DefaultWalkForwardValidator) runFold(ctx context.Context, cfg backtest.Config, fold WalkForwardFold) (WalkForwardResults, error) {
	trainCfg, testCfg := cfg, cfg
	trainCfg.Start, trainCfg.End = fold.TrainStart, fold.TrainEnd
	testCfg.Start, testCfg.End = fold.TestStart, fold.TestEnd

	report, err := v.optimizer(ctx, trainCfg)
	if err != nil {
		return WalkForwardResults{}, fmt.Errorf("optimization failed: %w", err)
	}

	trainSummary, err := v.backtester(trainCfg, report.BestParams)
	if err != nil {
		return WalkForwardResults{}, err
	}
	testSummary, err := v.backtester(testCfg, report.BestParams)
	if err != nil {
		return WalkForwardResults{}, err
	}

	return WalkForwardResults{
		Window:       fold,
		BestParams:   report.BestParams,
		Search:       report,
		TrainSummary: trainSummary,
		TestSummary:  testSummary,
	}, nil
}

// calculateSummary calculates summary statistics from all results
func calculateSummary(results []WalkForwardResults) *WalkForwardSummary {
	if len(results) == 0 {
		return &WalkForwardSummary{}
	}

	var trainReturns, testReturns, trainExcess, testExcess []float64
	for _, r := range results {
		trainReturns = append(trainReturns, r.TrainSummary.Sentiment.ReturnPct)
		testReturns = append(testReturns, r.TestSummary.Sentiment.ReturnPct)
		trainExcess = append(trainExcess, r.TrainSummary.ExcessReturnPct)
		testExcess = append(testExcess, r.TestSummary.ExcessReturnPct)
	}

	avgTrainExcess := average(trainExcess)
	avgTestExcess := average(testExcess)
	degradation := ((avgTrainExcess - avgTestExcess) / math.Max(0.01, math.Abs(avgTrainExcess))) * 100

	risk := "LOW"
	if degradation > HighRiskDegradation {
		risk = "HIGH"
	} else if degradation > ModerateRiskDegradation {
		risk = "MODERATE"
	}

	return &WalkForwardSummary{
		Results:            results,
		AverageTrainReturn: average(trainReturns),
		AverageTestReturn:  average(testReturns),
		AverageTrainExcess: avgTrainExcess,
		AverageTestExcess:  avgTestExcess,
		ExcessDegradation:  degradation,
		IsRobust:           degradation <= HighRiskDegradation,
		OverfittingRisk:    risk,
	}
}

func (v *DefaultWalkForwardValidator) printSummary(summary *WalkForwardSummary) {
	var testExcess []float64
	for _, r := range summary.Results {
		testExcess = append(testExcess, r.TestSummary.ExcessReturnPct)
	}

	fmt.Fprintln(v.out, "📊 ================ WALK-FORWARD SUMMARY ================")
	fmt.Fprintf(v.out, "AVERAGE PERFORMANCE ACROSS %d FOLDS:\n", len(summary.Results))
	fmt.Fprintf(v.out, "  Train Return:    %.2f%%\n", summary.AverageTrainReturn)
	fmt.Fprintf(v.out, "  Test Return:     %.2f%%\n", summary.AverageTestReturn)
	fmt.Fprintf(v.out, "  Train vs DCA:    %+.2f%%\n", summary.AverageTrainExcess)
	fmt.Fprintf(v.out, "  Test vs DCA:     %+.2f%% ± %.2f%%\n", summary.AverageTestExcess, stdDev(testExcess))

	fmt.Fprintf(v.out, "\nCONSISTENCY ANALYSIS:\n")
	fmt.Fprintf(v.out, "  Excess Degradation: %.1f%%\n", summary.ExcessDegradation)

	switch summary.OverfittingRisk {
	case "HIGH":
		fmt.Fprintf(v.out, "  ⚠️  HIGH OVERFITTING RISK - Multipliers may not generalize well\n")
	case "MODERATE":
		fmt.Fprintf(v.out, "  ⚠️  MODERATE OVERFITTING - Some performance degradation\n")
	default:
		fmt.Fprintf(v.out, "  ✅ ROBUST MULTIPLIERS - Good generalization across time periods\n")
	}
}

// Helper functions

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	avg := average(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}

	return math.Sqrt(sumSquares / float64(len(values)-1))
}
