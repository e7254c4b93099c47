package backtest

import (
	"math"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
)

// StrategySummary holds the aggregate results of one strategy.
type StrategySummary struct {
	Name           string
	BudgetReceived float64
	TotalInvested  float64
	FinalValue     float64
	FinalShares    float64
	FinalCash      float64
	TotalReturn    float64
	ReturnPct      float64
	Transactions   int
	MaxDrawdownPct float64
}

// CategoryStat aggregates one sentiment bucket across the run.
type CategoryStat struct {
	Category   sentiment.Category
	Multiplier float64
	Weeks      int
	Trades     int
	DesiredSum float64
	ActualSum  float64
}

// BufferStats describes the sentiment strategy's cash buffer over the run.
type BufferStats struct {
	Min   float64
	Max   float64
	Mean  float64
	Final float64
}

// Summary is the reduced view of a RunResult.
type Summary struct {
	TotalWeeks      int
	WeeklyBudget    float64
	InitialCash     float64
	DCA             StrategySummary
	Sentiment       StrategySummary
	Categories      [sentiment.NumCategories]CategoryStat
	Buffer          BufferStats
	ExcessReturnPct float64
	ValueDifference float64
}

// Summarize reduces a run into budget, return, category and buffer statistics.
// Strategies without transactions report zero counts and sums.
func Summarize(result *RunResult, cfg Config, multipliers sentiment.MultiplierConfig) *Summary {
	s := &Summary{
		TotalWeeks:   result.TotalWeeks,
		WeeklyBudget: cfg.WeeklyBudget,
		InitialCash:  cfg.InitialCash,
	}

	s.DCA = summarizeStrategy(StrategyDCA, result.DCASnapshots, result.DCATransactions, cfg.InitialCash, result.DCABudgetReceived)
	s.Sentiment = summarizeStrategy(StrategySentiment, result.SentimentSnapshots, result.SentimentTransactions, cfg.InitialCash, result.SentimentBudgetReceived)

	for _, c := range sentiment.Categories {
		s.Categories[c] = CategoryStat{
			Category:   c,
			Multiplier: multipliers.For(c),
			Weeks:      result.CategoryWeeks[c],
		}
	}
	for _, tx := range result.SentimentTransactions {
		if tx.Signal == nil {
			continue
		}
		stat := &s.Categories[tx.Signal.Category]
		stat.Trades++
		stat.DesiredSum += tx.Signal.DesiredInvestment
		stat.ActualSum += tx.Amount
	}

	s.Buffer = summarizeBuffer(result.BufferHistory)
	s.ExcessReturnPct = s.Sentiment.ReturnPct - s.DCA.ReturnPct
	s.ValueDifference = s.Sentiment.FinalValue - s.DCA.FinalValue
	return s
}

func summarizeStrategy(name string, snaps []Snapshot, txs []Transaction, initialCash, budgetReceived float64) StrategySummary {
	ss := StrategySummary{
		Name:           name,
		BudgetReceived: budgetReceived,
		Transactions:   len(txs),
	}
	for _, tx := range txs {
		ss.TotalInvested += tx.Amount
	}
	if len(snaps) > 0 {
		last := snaps[len(snaps)-1]
		ss.FinalValue = last.PortfolioValue
		ss.FinalShares = last.Shares
		ss.FinalCash = last.Cash
	}
	ss.TotalReturn, ss.ReturnPct = CalculateReturn(ss.FinalValue, initialCash+budgetReceived)
	ss.MaxDrawdownPct = CalculateMaxDrawdown(snaps)
	return ss
}

// CalculateReturn returns the absolute and percentage return of finalValue
// over capital. Zero capital yields a zero percentage.
func CalculateReturn(finalValue, capital float64) (float64, float64) {
	ret := finalValue - capital
	if capital == 0 {
		return ret, 0
	}
	return ret, ret / capital * 100
}

// CalculateMaxDrawdown returns the largest peak-to-trough fall of portfolio
// value, in percent.
func CalculateMaxDrawdown(snaps []Snapshot) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, s := range snaps {
		if s.PortfolioValue > peak {
			peak = s.PortfolioValue
		}
		if peak > 0 {
			dd := (peak - s.PortfolioValue) / peak * 100
			maxDD = math.Max(maxDD, dd)
		}
	}
	return maxDD
}

func summarizeBuffer(history []BufferPoint) BufferStats {
	if len(history) == 0 {
		return BufferStats{}
	}
	bs := BufferStats{
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
		Final: history[len(history)-1].Buffer,
	}
	sum := 0.0
	for _, p := range history {
		bs.Min = math.Min(bs.Min, p.Buffer)
		bs.Max = math.Max(bs.Max, p.Buffer)
		sum += p.Buffer
	}
	bs.Mean = sum / float64(len(history))
	return bs
}
