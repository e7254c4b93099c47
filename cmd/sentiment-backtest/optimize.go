package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/logger"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/monitoring"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/recorder"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/config"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/reporting"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// searchFlags override the search section of the configuration
type searchFlags struct {
	evaluations   int
	initialPoints int
	population    int
	seed          int64
	lower         float64
	upper         float64
	topN          int
	workers       int
	reportFile    string
	database      string
	metricsAddr   string
	logFile       bool
}

func (s *searchFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&s.evaluations, "evaluations", config.DefaultEvaluations, "Objective evaluation budget")
	fs.IntVar(&s.initialPoints, "initial-points", config.DefaultInitialPoints, "Random candidates before evolution starts")
	fs.IntVar(&s.population, "population", config.DefaultPopulationSize, "Population size per generation")
	fs.Int64Var(&s.seed, "seed", config.DefaultSeed, "Random seed")
	fs.Float64Var(&s.lower, "lower", config.DefaultLowerBound, "Lower bound for every multiplier")
	fs.Float64Var(&s.upper, "upper", config.DefaultUpperBound, "Upper bound for every multiplier")
	fs.IntVar(&s.topN, "top", config.DefaultTopN, "Number of ranked results to report")
	fs.IntVar(&s.workers, "workers", 0, "Parallel simulations (default: number of CPUs, capped)")
	fs.StringVar(&s.reportFile, "report-file", config.DefaultReportFile, "Plain-text report path")
	fs.StringVar(&s.database, "db", "", "SQLite database recording every evaluation")
	fs.StringVar(&s.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address, e.g. :9090")
	fs.BoolVar(&s.logFile, "log-file", false, "Write a per-evaluation session log under the output directory")
}

func (s *searchFlags) override(cmd *cobra.Command) func(*config.AppConfig) error {
	return func(cfg *config.AppConfig) error {
		changed := cmd.Flags().Changed
		if changed("evaluations") {
			cfg.Search.Evaluations = s.evaluations
		}
		if changed("initial-points") {
			cfg.Search.InitialPoints = s.initialPoints
		}
		if changed("population") {
			cfg.Search.PopulationSize = s.population
		}
		if changed("seed") {
			cfg.Search.Seed = s.seed
		}
		if changed("lower") {
			cfg.Search.LowerBound = s.lower
		}
		if changed("upper") {
			cfg.Search.UpperBound = s.upper
		}
		if changed("top") {
			cfg.Search.TopN = s.topN
		}
		if changed("workers") {
			cfg.Search.Workers = s.workers
		}
		if changed("report-file") {
			cfg.Search.ReportFile = s.reportFile
		}
		if changed("db") {
			cfg.Search.Database = s.database
		}
		if changed("metrics-addr") {
			cfg.Search.MetricsAddr = s.metricsAddr
		}
		if changed("log-file") {
			cfg.Search.LogFile = s.logFile
		}
		return nil
	}
}

// gaConfig maps the search section onto the genetic algorithm parameters
func gaConfig(s config.SearchConfig) optimization.GAConfig {
	ga := optimization.DefaultGAConfig()
	ga.MaxEvaluations = s.Evaluations
	ga.InitialPoints = s.InitialPoints
	ga.PopulationSize = s.PopulationSize
	ga.Seed = s.Seed
	if s.Workers > 0 {
		ga.Workers = s.Workers
	}
	if ga.EliteSize >= ga.PopulationSize {
		ga.EliteSize = ga.PopulationSize - 1
	}
	return ga
}

func openRecorder(path string) (recorder.Recorder, error) {
	if path == "" {
		return recorder.NewNoopRecorder(), nil
	}
	return recorder.NewSQLiteRecorder(path)
}

func newOptimizeCmd(opts *globalOptions) *cobra.Command {
	var flags backtestFlags
	var search searchFlags
	var outputs outputFlags

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for the multipliers that maximise the final portfolio value",
		Example: `  sentiment-backtest optimize --start 2020-01-01 --evaluations 400
  sentiment-backtest optimize --db results/search.db --metrics-addr :9090 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, bcfg, err := loadConfig(cmd, opts, &flags, search.override(cmd), outputs.override(cmd))
			if err != nil {
				return err
			}

			engine, err := buildEngine(ctx, cfg, bcfg)
			if err != nil {
				return err
			}

			minimizer, err := optimization.NewGeneticMinimizer(gaConfig(cfg.Search))
			if err != nil {
				return err
			}
			bounds := optimization.UniformBounds(sentiment.NumCategories, cfg.Search.LowerBound, cfg.Search.UpperBound)

			driver := optimization.NewDriver(engine, minimizer, bounds)
			driver.SetTopN(cfg.Search.TopN)
			driver.SetBudget(cfg.Search.Evaluations)

			rec, err := openRecorder(cfg.Search.Database)
			if err != nil {
				return err
			}
			defer rec.Close()
			driver.SetSink(rec)

			health := monitoring.NewHealthChecker()
			driver.SetProgress(health)
			srv := monitoring.StartMetricsServer(cfg.Search.MetricsAddr, health)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			if cfg.Search.LogFile {
				sessionLog, err := logger.NewLogger(filepath.Join(cfg.Output.Dir, config.LogsDir), "optimize")
				if err != nil {
					return err
				}
				defer sessionLog.Close()
				driver.SetEvalLogger(sessionLog)
				common.Info("Session log: %s", sessionLog.GetLogPath())
			}

			common.Header("Multiplier search")
			common.Info("Window %s to %s, %d evaluations, bounds [%.2f, %.2f]",
				cfg.StartDate, bcfg.End.Format(types.DateLayout), cfg.Search.Evaluations, cfg.Search.LowerBound, cfg.Search.UpperBound)

			report, searchErr := driver.Search(ctx)
			if report == nil {
				return searchErr
			}
			if searchErr != nil {
				if !errors.Is(searchErr, context.Canceled) {
					return searchErr
				}
				common.Warn("Search interrupted after %d evaluations, reporting partial results", report.TotalEvaluations)
			}

			manager := reporting.NewReportingManager(reportingConfig(cfg), cmd.OutOrStdout())
			dir := reporting.NewDefaultPathManager(cfg.Output.Dir).GetDefaultOutputDir(priceLabel(cfg), bcfg.Start, bcfg.End)
			if _, err := manager.ReportSearch(report, cfg.Search.ReportFile, dir); err != nil {
				return err
			}

			// Replay the winner so the budget verification and artifacts
			// describe the best multipliers.
			best, err := engine.Run(report.BestParams)
			if err != nil {
				return err
			}
			if _, err := manager.ReportRun(best, backtest.Summarize(best, bcfg, report.BestParams), dir); err != nil {
				return err
			}

			common.Success("Search %s complete: best $%s with %s", report.SessionID, reporting.Money(report.BestValue), report.BestParams)
			return nil
		},
	}

	flags.bind(cmd)
	search.bind(cmd)
	outputs.bind(cmd)
	return cmd
}
