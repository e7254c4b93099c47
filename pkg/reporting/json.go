package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// SearchOutcome annotates a best-config fragment with where it came from
type SearchOutcome struct {
	SessionID        string  `json:"session_id"`
	PortfolioValue   float64 `json:"portfolio_value"`
	ExcessReturnPct  float64 `json:"excess_return_pct"`
	TotalEvaluations int     `json:"total_evaluations"`
}

// BestConfig is a config fragment that can be passed back with --config
type BestConfig struct {
	Multipliers map[string]float64 `json:"multipliers"`
	Search      *SearchOutcome     `json:"search_result,omitempty"`
}

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// BuildBestConfig converts a search report into a config fragment
func BuildBestConfig(report *optimization.SearchReport) BestConfig {
	multipliers := make(map[string]float64, len(report.BestParams))
	for k, v := range report.BestParams.ToMap() {
		multipliers[k] = Round2(v)
	}
	return BestConfig{
		Multipliers: multipliers,
		Search: &SearchOutcome{
			SessionID:        report.SessionID,
			PortfolioValue:   Round2(report.BestValue),
			ExcessReturnPct:  Round2(report.Best.ExcessReturnPct),
			TotalEvaluations: report.TotalEvaluations,
		},
	}
}

// FormatBestConfig formats the best parameters as JSON bytes
func (f *DefaultJSONFormatter) FormatBestConfig(report *optimization.SearchReport) ([]byte, error) {
	return json.MarshalIndent(BuildBestConfig(report), "", "  ")
}

// PrintBestConfig prints the best parameters as JSON to console
func (f *DefaultJSONFormatter) PrintBestConfig(report *optimization.SearchReport) {
	data, _ := f.FormatBestConfig(report)
	fmt.Println(string(data))
}

// WriteBestConfigJSON writes the best parameters to a JSON file
func WriteBestConfigJSON(report *optimization.SearchReport, path string) error {
	data, err := NewDefaultJSONFormatter().FormatBestConfig(report)
	if err != nil {
		return err
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StrategyJSON is the JSON view of one strategy summary
type StrategyJSON struct {
	Name           string  `json:"name"`
	BudgetReceived float64 `json:"budget_received"`
	TotalInvested  float64 `json:"total_invested"`
	FinalValue     float64 `json:"final_value"`
	FinalShares    float64 `json:"final_shares"`
	FinalCash      float64 `json:"final_cash"`
	ReturnPct      float64 `json:"return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Transactions   int     `json:"transactions"`
}

// CategoryJSON is the JSON view of one sentiment bucket
type CategoryJSON struct {
	Multiplier float64 `json:"multiplier"`
	Weeks      int     `json:"weeks"`
	Trades     int     `json:"trades"`
	Invested   float64 `json:"invested"`
}

// RunSummaryJSON is the machine-readable form of a single run
type RunSummaryJSON struct {
	TotalWeeks      int                     `json:"total_weeks"`
	WeeklyBudget    float64                 `json:"weekly_budget"`
	InitialCash     float64                 `json:"initial_cash"`
	DCA             StrategyJSON            `json:"dca"`
	Sentiment       StrategyJSON            `json:"fear_greed"`
	Categories      map[string]CategoryJSON `json:"categories"`
	ExcessReturnPct float64                 `json:"excess_return_pct"`
	FinalBuffer     float64                 `json:"final_buffer"`
}

func strategyJSON(s backtest.StrategySummary) StrategyJSON {
	return StrategyJSON{
		Name:           s.Name,
		BudgetReceived: Round2(s.BudgetReceived),
		TotalInvested:  Round2(s.TotalInvested),
		FinalValue:     Round2(s.FinalValue),
		FinalShares:    s.FinalShares,
		FinalCash:      Round2(s.FinalCash),
		ReturnPct:      Round2(s.ReturnPct),
		MaxDrawdownPct: Round2(s.MaxDrawdownPct),
		Transactions:   s.Transactions,
	}
}

// BuildRunSummary converts a run summary into its JSON view
func BuildRunSummary(s *backtest.Summary) RunSummaryJSON {
	out := RunSummaryJSON{
		TotalWeeks:      s.TotalWeeks,
		WeeklyBudget:    s.WeeklyBudget,
		InitialCash:     s.InitialCash,
		DCA:             strategyJSON(s.DCA),
		Sentiment:       strategyJSON(s.Sentiment),
		Categories:      make(map[string]CategoryJSON, len(s.Categories)),
		ExcessReturnPct: Round2(s.ExcessReturnPct),
		FinalBuffer:     Round2(s.Buffer.Final),
	}
	for _, c := range s.Categories {
		out.Categories[c.Category.Key()] = CategoryJSON{
			Multiplier: c.Multiplier,
			Weeks:      c.Weeks,
			Trades:     c.Trades,
			Invested:   Round2(c.ActualSum),
		}
	}
	return out
}

// WriteRunSummaryJSON writes the run summary to a JSON file
func WriteRunSummaryJSON(summary *backtest.Summary, path string) error {
	data, err := json.MarshalIndent(BuildRunSummary(summary), "", "  ")
	if err != nil {
		return err
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
