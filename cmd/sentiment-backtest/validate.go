package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/recorder"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/timeseries"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/config"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/validation"
)

// maxFoldWeeks caps rolling window sizes at roughly a century of purchases
const maxFoldWeeks = 5200

type walkForwardFlags struct {
	split      float64
	rolling    bool
	trainWeeks int
	testWeeks  int
	rollWeeks  int
}

func (w *walkForwardFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&w.split, "split", 0.7, "Train share of the schedule for holdout validation")
	fs.BoolVar(&w.rolling, "rolling", false, "Use rolling folds instead of a single holdout")
	fs.IntVar(&w.trainWeeks, "train-weeks", 104, "Purchases per training window (rolling)")
	fs.IntVar(&w.testWeeks, "test-weeks", 26, "Purchases per test window (rolling)")
	fs.IntVar(&w.rollWeeks, "roll-weeks", 0, "Step between folds (rolling, default: test weeks)")
}

func (w *walkForwardFlags) config() (validation.WalkForwardConfig, error) {
	v := common.NewFlagValidator()
	if w.rolling {
		v.ValidateInt("train-weeks", w.trainWeeks, validation.MinTrainWeeks, maxFoldWeeks)
		v.ValidateInt("test-weeks", w.testWeeks, validation.MinTestWeeks, maxFoldWeeks)
	} else {
		v.ValidateFloat("split", w.split, 0.01, 0.99)
	}
	if err := v.GetError(); err != nil {
		return validation.WalkForwardConfig{}, err
	}
	return validation.WalkForwardConfig{
		Rolling:    w.rolling,
		SplitRatio: w.split,
		TrainWeeks: w.trainWeeks,
		TestWeeks:  w.testWeeks,
		RollWeeks:  w.rollWeeks,
	}, nil
}

// foldOptimizer searches each training window over the shared store
func foldOptimizer(cfg *config.AppConfig, store *timeseries.Store, rec recorder.Recorder) validation.Optimizer {
	return func(ctx context.Context, window backtest.Config) (*optimization.SearchReport, error) {
		engine, err := backtest.NewEngine(window, store)
		if err != nil {
			return nil, err
		}
		minimizer, err := optimization.NewGeneticMinimizer(gaConfig(cfg.Search))
		if err != nil {
			return nil, err
		}
		bounds := optimization.UniformBounds(sentiment.NumCategories, cfg.Search.LowerBound, cfg.Search.UpperBound)

		driver := optimization.NewDriver(engine, minimizer, bounds)
		driver.SetTopN(cfg.Search.TopN)
		driver.SetBudget(cfg.Search.Evaluations)
		driver.SetSink(rec)
		return driver.Search(ctx)
	}
}

func foldBacktester(store *timeseries.Store) validation.Backtester {
	return func(window backtest.Config, multipliers sentiment.MultiplierConfig) (*backtest.Summary, error) {
		engine, err := backtest.NewEngine(window, store)
		if err != nil {
			return nil, err
		}
		result, err := engine.Run(multipliers)
		if err != nil {
			return nil, err
		}
		return backtest.Summarize(result, window, multipliers), nil
	}
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var flags backtestFlags
	var search searchFlags
	var wf walkForwardFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Walk-forward validation of the multiplier search",
		Long: `validate searches multipliers on a training window and replays the winner on
the weeks that follow, reporting how much of the edge over plain DCA survives.`,
		Example: `  sentiment-backtest validate --split 0.7 --evaluations 200
  sentiment-backtest validate --rolling --train-weeks 104 --test-weeks 26`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wfConfig, err := wf.config()
			if err != nil {
				return err
			}
			cfg, bcfg, err := loadConfig(cmd, opts, &flags, search.override(cmd))
			if err != nil {
				return err
			}

			store, err := buildStore(ctx, cfg, bcfg)
			if err != nil {
				return err
			}
			rec, err := openRecorder(cfg.Search.Database)
			if err != nil {
				return err
			}
			defer rec.Close()

			common.Header("Walk-forward validation")
			validator := validation.NewDefaultWalkForwardValidator(foldOptimizer(cfg, store, rec), foldBacktester(store))
			validator.SetOutput(cmd.OutOrStdout())

			summary, err := validator.Validate(ctx, bcfg, wfConfig)
			if err != nil {
				return err
			}

			if summary.IsRobust {
				common.Success("%d folds, test excess %+.2f%%, risk %s", len(summary.Results), summary.AverageTestExcess, summary.OverfittingRisk)
			} else {
				common.Warn("%d folds, test excess %+.2f%%, risk %s", len(summary.Results), summary.AverageTestExcess, summary.OverfittingRisk)
			}
			return nil
		},
	}

	flags.bind(cmd)
	search.bind(cmd)
	wf.bind(cmd)
	return cmd
}
