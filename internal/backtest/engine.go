package backtest

import (
	"fmt"
	"time"

	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/schedule"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/timeseries"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// BufferPoint records the sentiment strategy's buffer after each usable date.
type BufferPoint struct {
	Date           time.Time
	Buffer         float64
	SentimentValue float64
	Category       sentiment.Category
}

// RunResult is everything one run produces, consumed by the aggregator,
// reporters and the parameter search.
type RunResult struct {
	DCASnapshots            []Snapshot
	DCATransactions         []Transaction
	SentimentSnapshots      []Snapshot
	SentimentTransactions   []Transaction
	BufferHistory           []BufferPoint
	Prices                  []types.PricePoint
	TotalWeeks              int
	CategoryWeeks           sentiment.CategoryCounts
	DCABudgetReceived       float64
	SentimentBudgetReceived float64
}

// FinalSentimentValue returns the last sentiment portfolio value
func (r *RunResult) FinalSentimentValue() float64 {
	if len(r.SentimentSnapshots) == 0 {
		return 0
	}
	return r.SentimentSnapshots[len(r.SentimentSnapshots)-1].PortfolioValue
}

// FinalDCAValue returns the last DCA portfolio value
func (r *RunResult) FinalDCAValue() float64 {
	if len(r.DCASnapshots) == 0 {
		return 0
	}
	return r.DCASnapshots[len(r.DCASnapshots)-1].PortfolioValue
}

// Engine runs DCA and sentiment strategies side by side over one data window.
// It holds no per-run state, so Run may be called concurrently.
type Engine struct {
	cfg   Config
	store *timeseries.Store
	dates []time.Time
}

// NewEngine validates the configuration and precomputes the purchase schedule.
func NewEngine(cfg Config, store *timeseries.Store) (*Engine, error) {
	if store == nil {
		return nil, apperrors.NewDataUnavailableError("backtest", "NewEngine", "no time series store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dates, err := schedule.Generate(cfg.Start, cfg.End, cfg.Weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to generate purchase schedule: %w", err)
	}
	return &Engine{cfg: cfg, store: store, dates: dates}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config { return e.cfg }

// ScheduledDates returns the number of dates in the purchase schedule
func (e *Engine) ScheduledDates() int { return len(e.dates) }

// Run simulates both strategies with the given sentiment multipliers.
// Dates that precede either series are skipped; a run with no usable date
// fails.
func (e *Engine) Run(multipliers sentiment.MultiplierConfig) (*RunResult, error) {
	if err := multipliers.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "backtest", "Run")
	}

	dca := NewDCAStrategy(e.cfg)
	fg := NewSentimentStrategy(e.cfg, multipliers)

	result := &RunResult{
		DCASnapshots:       make([]Snapshot, 0, len(e.dates)),
		SentimentSnapshots: make([]Snapshot, 0, len(e.dates)),
		BufferHistory:      make([]BufferPoint, 0, len(e.dates)),
		Prices:             e.store.Prices(),
	}

	for _, date := range e.dates {
		value, err := e.store.SentimentAsOf(date)
		if err != nil {
			continue
		}
		price, err := e.store.PriceAsOf(date)
		if err != nil {
			continue
		}

		obs := Observation{
			Date:           date,
			Price:          price,
			SentimentValue: value,
			Category:       sentiment.Classify(value),
		}
		result.CategoryWeeks.Inc(obs.Category)
		result.TotalWeeks++

		tx, snap := dca.Advance(obs)
		if tx != nil {
			result.DCATransactions = append(result.DCATransactions, *tx)
		}
		result.DCASnapshots = append(result.DCASnapshots, snap)

		tx, snap = fg.Advance(obs)
		if tx != nil {
			result.SentimentTransactions = append(result.SentimentTransactions, *tx)
		}
		result.SentimentSnapshots = append(result.SentimentSnapshots, snap)

		result.BufferHistory = append(result.BufferHistory, BufferPoint{
			Date:           date,
			Buffer:         fg.State().Cash,
			SentimentValue: value,
			Category:       obs.Category,
		})
	}

	if result.TotalWeeks == 0 {
		return nil, apperrors.NewDataUnavailableError("backtest", "Run",
			fmt.Sprintf("no usable dates between %s and %s",
				e.cfg.Start.Format(types.DateLayout), e.cfg.End.Format(types.DateLayout))).
			WithContext("scheduled_dates", len(e.dates))
	}

	result.DCABudgetReceived = dca.BudgetReceived()
	result.SentimentBudgetReceived = fg.BudgetReceived()
	return result, nil
}
