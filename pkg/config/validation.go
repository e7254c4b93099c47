package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/schedule"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/data"
)

// Validation limits
const (
	MaxExpenseRatio = 1.0
	MaxEvaluations  = 100000
)

// Validator checks an AppConfig before it is used
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate performs validation on every section of the configuration
func (v *Validator) Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := v.validateRun(cfg); err != nil {
		return err
	}
	if err := v.validateData(&cfg.Data); err != nil {
		return err
	}
	return v.validateSearch(&cfg.Search)
}

func (v *Validator) validateRun(cfg *AppConfig) error {
	if cfg.WeeklyBudget <= 0 {
		return fmt.Errorf("weekly budget must be positive, got: %.2f", cfg.WeeklyBudget)
	}
	if cfg.InitialCash < 0 {
		return fmt.Errorf("initial cash cannot be negative, got: %.2f", cfg.InitialCash)
	}
	if cfg.TransactionFee < 0 {
		return fmt.Errorf("transaction fee cannot be negative, got: %.2f", cfg.TransactionFee)
	}
	if cfg.ExpenseRatio < 0 || cfg.ExpenseRatio > MaxExpenseRatio {
		return fmt.Errorf("expense ratio must be between 0 and %.2f, got: %.4f", MaxExpenseRatio, cfg.ExpenseRatio)
	}
	if _, err := schedule.ParseWeekday(cfg.PurchaseDay); err != nil {
		return err
	}
	start, err := schedule.ParseDate(cfg.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := schedule.ResolveEnd(cfg.EndDate, time.Now())
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if start.After(end) {
		return fmt.Errorf("start date %s is after end date %s", cfg.StartDate, cfg.EndDate)
	}
	if _, err := sentiment.FromMap(cfg.Multipliers); err != nil {
		return fmt.Errorf("multipliers: %w", err)
	}
	return nil
}

func (v *Validator) validateData(d *DataConfig) error {
	switch strings.ToLower(d.SentimentSource) {
	case data.SourceFinHacker, data.SourceAlternative, data.SourceCSV:
	default:
		return fmt.Errorf("sentiment source must be one of finhacker, alternative, csv, got: %q", d.SentimentSource)
	}
	switch strings.ToLower(d.PriceSource) {
	case data.SourceYahoo:
		if len(d.Tickers) == 0 {
			return fmt.Errorf("yahoo price source needs at least one ticker")
		}
	case data.SourceBybit:
		if d.BybitSymbol == "" {
			return fmt.Errorf("bybit price source needs bybit_symbol")
		}
	case data.SourceCSV:
	default:
		return fmt.Errorf("price source must be one of yahoo, bybit, csv, got: %q", d.PriceSource)
	}
	if d.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got: %d", d.TimeoutSeconds)
	}
	if d.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got: %d", d.Retries)
	}
	return nil
}

func (v *Validator) validateSearch(s *SearchConfig) error {
	if s.Evaluations <= 0 || s.Evaluations > MaxEvaluations {
		return fmt.Errorf("evaluations must be between 1 and %d, got: %d", MaxEvaluations, s.Evaluations)
	}
	if s.InitialPoints <= 0 || s.InitialPoints > s.Evaluations {
		return fmt.Errorf("initial points must be between 1 and evaluations (%d), got: %d", s.Evaluations, s.InitialPoints)
	}
	if s.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got: %d", s.PopulationSize)
	}
	if s.LowerBound < 0 {
		return fmt.Errorf("lower bound cannot be negative, got: %.2f", s.LowerBound)
	}
	if s.UpperBound <= s.LowerBound {
		return fmt.Errorf("upper bound must exceed lower bound (%.2f), got: %.2f", s.LowerBound, s.UpperBound)
	}
	if s.TopN <= 0 {
		return fmt.Errorf("top N must be positive, got: %d", s.TopN)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got: %d", s.Workers)
	}
	return nil
}
