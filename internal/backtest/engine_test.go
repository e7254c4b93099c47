package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/timeseries"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

var defaultMultipliers = sentiment.MultiplierConfig{2.0, 1.5, 1.0, 0.5, 0.2}

func date(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// tenWeekConfig covers ten Tuesdays: 2024-01-02 .. 2024-03-05
func tenWeekConfig() Config {
	return Config{
		WeeklyBudget: 500,
		Weekday:      time.Tuesday,
		Start:        date("2024-01-02"),
		End:          date("2024-03-05"),
		Multipliers:  defaultMultipliers,
	}
}

func constantStore(t *testing.T, sentimentValue, price float64) *timeseries.Store {
	t.Helper()
	store, err := timeseries.NewStore(
		[]types.SentimentPoint{{Date: date("2024-01-01"), Value: sentimentValue}},
		[]types.PricePoint{{Date: date("2024-01-01"), Price: price}},
	)
	require.NoError(t, err)
	return store
}

// varyingStore builds daily data with a sentiment cycle and a drifting price
func varyingStore(t *testing.T, from string, days int) *timeseries.Store {
	t.Helper()
	start := date(from)
	var sent []types.SentimentPoint
	var prices []types.PricePoint
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		sent = append(sent, types.SentimentPoint{Date: d, Value: float64((i * 7) % 101)})
		// skip weekends in the price series
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		prices = append(prices, types.PricePoint{Date: d, Price: 100 + float64(i%37) - float64(i%11)*0.5})
	}
	store, err := timeseries.NewStore(sent, prices)
	require.NoError(t, err)
	return store
}

func runEngine(t *testing.T, cfg Config, store *timeseries.Store, m sentiment.MultiplierConfig) *RunResult {
	t.Helper()
	engine, err := NewEngine(cfg, store)
	require.NoError(t, err)
	result, err := engine.Run(m)
	require.NoError(t, err)
	return result
}

// TestEngine_Run_ExtremeFearScenario tests hand-computed buffer math with a capped multiplier
func TestEngine_Run_ExtremeFearScenario(t *testing.T) {
	result := runEngine(t, tenWeekConfig(), constantStore(t, 10, 100), defaultMultipliers)

	require.Equal(t, 10, result.TotalWeeks)
	assert.Equal(t, 10, result.CategoryWeeks[sentiment.ExtremeFear])

	// every week the buffer holds exactly 500, desired is 1000, actual is capped at 500
	require.Len(t, result.SentimentTransactions, 10)
	for i, tx := range result.SentimentTransactions[:3] {
		require.NotNil(t, tx.Signal)
		assert.Equal(t, 1000.0, tx.Signal.DesiredInvestment, "week %d", i+1)
		assert.Equal(t, 500.0, tx.Amount, "week %d", i+1)
		assert.Equal(t, 5.0, tx.SharesBought, "week %d", i+1)
		assert.Equal(t, float64(5*(i+1)), tx.TotalShares, "week %d", i+1)
		assert.Equal(t, 0.0, tx.CashBalance, "week %d", i+1)
		assert.Equal(t, 2.0, tx.Signal.Multiplier)
		assert.Equal(t, sentiment.ExtremeFear, tx.Signal.Category)
	}

	last := result.SentimentSnapshots[9]
	assert.Equal(t, 50.0, last.Shares)
	assert.Equal(t, 0.0, last.Cash)
	assert.Equal(t, 5000.0, last.PortfolioValue)
	require.NotNil(t, last.SentimentValue)
	assert.Equal(t, 10.0, *last.SentimentValue)

	dcaLast := result.DCASnapshots[9]
	assert.Equal(t, 50.0, dcaLast.Shares)
	assert.Equal(t, 0.0, dcaLast.Cash)
	assert.Nil(t, dcaLast.SentimentValue)

	assert.Equal(t, 5000.0, result.DCABudgetReceived)
	assert.Equal(t, 5000.0, result.SentimentBudgetReceived)
}

// TestEngine_Run_InitialCashDrawdown tests three weeks of buffer drawdown from initial cash
func TestEngine_Run_InitialCashDrawdown(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.InitialCash = 1000
	result := runEngine(t, cfg, constantStore(t, 10, 100), defaultMultipliers)

	txs := result.SentimentTransactions
	require.GreaterOrEqual(t, len(txs), 3)

	// week 1: buffer 1500, invest 1000, left 500
	assert.Equal(t, 1000.0, txs[0].Amount)
	assert.Equal(t, 10.0, txs[0].TotalShares)
	assert.Equal(t, 500.0, txs[0].CashBalance)
	// week 2: buffer 1000, invest 1000, left 0
	assert.Equal(t, 1000.0, txs[1].Amount)
	assert.Equal(t, 20.0, txs[1].TotalShares)
	assert.Equal(t, 0.0, txs[1].CashBalance)
	// week 3: buffer 500, capped at 500
	assert.Equal(t, 500.0, txs[2].Amount)
	assert.Equal(t, 1000.0, txs[2].Signal.DesiredInvestment)
	assert.Equal(t, 25.0, txs[2].TotalShares)
	assert.Equal(t, 0.0, txs[2].CashBalance)

	// DCA keeps the initial cash untouched
	assert.Equal(t, 1000.0, result.DCASnapshots[0].Cash)
	assert.Equal(t, 1000.0, result.DCASnapshots[9].Cash)
	assert.Equal(t, 50.0, result.DCASnapshots[9].Shares)
}

// TestEngine_Run_ZeroMultiplier tests that a zero multiplier buys nothing and keeps the budget
func TestEngine_Run_ZeroMultiplier(t *testing.T) {
	m := defaultMultipliers
	m[sentiment.ExtremeFear] = 0
	result := runEngine(t, tenWeekConfig(), constantStore(t, 10, 100), m)

	assert.Empty(t, result.SentimentTransactions)
	for i, snap := range result.SentimentSnapshots {
		assert.Equal(t, 0.0, snap.Shares)
		assert.Equal(t, float64(500*(i+1)), snap.Cash)
		assert.Equal(t, result.BufferHistory[i].Buffer, snap.Cash)
	}
	assert.Len(t, result.DCATransactions, 10)
}

// TestEngine_Run_Invariants tests budget conservation, DCA purchases and buffer bounds
func TestEngine_Run_Invariants(t *testing.T) {
	cfg := Config{
		WeeklyBudget:       250,
		InitialCash:        300,
		Weekday:            time.Wednesday,
		Start:              date("2022-01-01"),
		End:                date("2023-12-31"),
		TransactionFee:     1.5,
		AnnualExpenseRatio: 0.0003,
		Multipliers:        defaultMultipliers,
	}
	result := runEngine(t, cfg, varyingStore(t, "2021-12-01", 800), defaultMultipliers)

	require.Greater(t, result.TotalWeeks, 90)
	expected := float64(result.TotalWeeks) * cfg.WeeklyBudget
	assert.InDelta(t, expected, result.DCABudgetReceived, 1e-6)
	assert.InDelta(t, expected, result.SentimentBudgetReceived, 1e-6)
	assert.Equal(t, result.TotalWeeks, result.CategoryWeeks.Total())

	assert.Len(t, result.DCATransactions, result.TotalWeeks)
	assert.Len(t, result.DCASnapshots, result.TotalWeeks)
	assert.Len(t, result.SentimentSnapshots, result.TotalWeeks)
	assert.Len(t, result.BufferHistory, result.TotalWeeks)

	for _, tx := range result.SentimentTransactions {
		require.NotNil(t, tx.Signal)
		assert.LessOrEqual(t, tx.Amount, tx.Signal.DesiredInvestment)
		assert.Greater(t, tx.Amount, cfg.TransactionFee)
		assert.GreaterOrEqual(t, tx.CashBalance, 0.0)
		assert.InDelta(t, (tx.Amount-cfg.TransactionFee)/tx.Price, tx.SharesBought, 1e-9)
	}
	for _, p := range result.BufferHistory {
		assert.GreaterOrEqual(t, p.Buffer, 0.0)
	}
	for _, snap := range append(result.DCASnapshots, result.SentimentSnapshots...) {
		assert.GreaterOrEqual(t, snap.Shares, 0.0)
		assert.GreaterOrEqual(t, snap.Cash, 0.0)
	}
}

// TestEngine_Run_Idempotent tests that identical inputs give identical outputs
func TestEngine_Run_Idempotent(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.Start = date("2022-01-01")
	cfg.End = date("2023-06-30")
	cfg.AnnualExpenseRatio = 0.0003
	cfg.TransactionFee = 0.5

	engine, err := NewEngine(cfg, varyingStore(t, "2021-12-01", 600))
	require.NoError(t, err)

	a, err := engine.Run(defaultMultipliers)
	require.NoError(t, err)
	b, err := engine.Run(defaultMultipliers)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// TestEngine_Run_SkipsLookupMisses tests that dates before the data are skipped, not fatal
func TestEngine_Run_SkipsLookupMisses(t *testing.T) {
	store, err := timeseries.NewStore(
		[]types.SentimentPoint{{Date: date("2024-01-01"), Value: 50}},
		// prices only from the third Tuesday on
		[]types.PricePoint{{Date: date("2024-01-16"), Price: 50}},
	)
	require.NoError(t, err)

	result := runEngine(t, tenWeekConfig(), store, defaultMultipliers)
	assert.Equal(t, 8, result.TotalWeeks)
	assert.Equal(t, date("2024-01-16"), result.DCASnapshots[0].Date)
	assert.Equal(t, 4000.0, result.DCABudgetReceived)
}

// TestEngine_Run_NoUsableDates tests that a window before all data fails as data unavailable
func TestEngine_Run_NoUsableDates(t *testing.T) {
	store, err := timeseries.NewStore(
		[]types.SentimentPoint{{Date: date("2025-01-01"), Value: 50}},
		[]types.PricePoint{{Date: date("2025-01-01"), Price: 50}},
	)
	require.NoError(t, err)

	engine, err := NewEngine(tenWeekConfig(), store)
	require.NoError(t, err)
	_, err = engine.Run(defaultMultipliers)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
}

// TestEngine_Run_ExpenseDecay tests one interval of expense drag on shares and value
func TestEngine_Run_ExpenseDecay(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.End = cfg.Start
	cfg.AnnualExpenseRatio = 0.0365
	result := runEngine(t, cfg, constantStore(t, 50, 100), defaultMultipliers)

	// 5 shares * 100 * 0.0365 / 365 = 0.05 dollars = 0.0005 shares
	snap := result.DCASnapshots[0]
	assert.InDelta(t, 4.9995, snap.Shares, 1e-12)
	assert.InDelta(t, 499.95, snap.PortfolioValue, 1e-9)

	// the transaction shows pre-decay shares
	assert.Equal(t, 5.0, result.DCATransactions[0].TotalShares)
}

// TestEngine_Run_FeeAboveBudget tests that neither strategy buys when the fee exceeds the budget
func TestEngine_Run_FeeAboveBudget(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.TransactionFee = 600
	result := runEngine(t, cfg, constantStore(t, 50, 100), defaultMultipliers)

	assert.Empty(t, result.DCATransactions)
	assert.Equal(t, 5000.0, result.DCASnapshots[9].Cash)
	assert.Equal(t, 0.0, result.DCASnapshots[9].Shares)

	// neutral multiplier 1.0: desired 500 never exceeds the fee
	assert.Empty(t, result.SentimentTransactions)
	assert.Equal(t, 5000.0, result.SentimentSnapshots[9].Cash)
}

// TestEngine_Run_FeeAbsorbed tests that DCA waits until cash covers budget plus fee
func TestEngine_Run_FeeAbsorbed(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.TransactionFee = 10
	result := runEngine(t, cfg, constantStore(t, 50, 100), defaultMultipliers)

	// week 1 holds 500 < 510, every later week holds 1000
	require.Len(t, result.DCATransactions, result.TotalWeeks-1)
	assert.Equal(t, 500.0, result.DCASnapshots[0].Cash)
	assert.Equal(t, 0.0, result.DCASnapshots[0].Shares)
	assert.Equal(t, result.DCASnapshots[1].Date, result.DCATransactions[0].Date)
	for _, tx := range result.DCATransactions {
		assert.Equal(t, 500.0, tx.Amount)
		assert.InDelta(t, 4.9, tx.SharesBought, 1e-12)
		assert.Equal(t, 500.0, tx.CashBalance)
	}
	assert.Equal(t, 500.0, result.DCASnapshots[9].Cash)
	assert.InDelta(t, 44.1, result.DCASnapshots[9].Shares, 1e-9)

	require.Len(t, result.SentimentTransactions, result.TotalWeeks)
	assert.InDelta(t, 49.0, result.SentimentSnapshots[9].Shares, 1e-9)
}

// TestEngine_Run_FeeCoveredByInitialCash tests that DCA buys every week when
// initial cash covers the fee
func TestEngine_Run_FeeCoveredByInitialCash(t *testing.T) {
	cfg := tenWeekConfig()
	cfg.TransactionFee = 10
	cfg.InitialCash = 10
	result := runEngine(t, cfg, constantStore(t, 50, 100), defaultMultipliers)

	require.Len(t, result.DCATransactions, result.TotalWeeks)
	assert.Equal(t, 10.0, result.DCASnapshots[9].Cash)
}

// TestNewEngine_InvalidConfig tests configuration validation
func TestNewEngine_InvalidConfig(t *testing.T) {
	store := constantStore(t, 50, 100)

	cfg := tenWeekConfig()
	cfg.WeeklyBudget = 0
	_, err := NewEngine(cfg, store)
	assert.True(t, apperrors.IsConfiguration(err))

	cfg = tenWeekConfig()
	cfg.Start, cfg.End = cfg.End, cfg.Start
	_, err = NewEngine(cfg, store)
	assert.ErrorContains(t, err, "after end date")

	cfg = tenWeekConfig()
	cfg.Multipliers[sentiment.Greed] = -1
	_, err = NewEngine(cfg, store)
	assert.Error(t, err)

	_, err = NewEngine(tenWeekConfig(), nil)
	assert.True(t, apperrors.IsDataUnavailable(err))
}

// TestEngine_Run_Concurrent tests that parallel runs do not share state
func TestEngine_Run_Concurrent(t *testing.T) {
	engine, err := NewEngine(tenWeekConfig(), constantStore(t, 60, 100))
	require.NoError(t, err)

	want, err := engine.Run(defaultMultipliers)
	require.NoError(t, err)

	results := make(chan *RunResult, 8)
	for i := 0; i < 8; i++ {
		go func() {
			r, err := engine.Run(defaultMultipliers)
			if err != nil {
				results <- nil
				return
			}
			results <- r
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-results)
	}
}
