package backtest

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// DaysPerYear converts an annual expense ratio into a per-interval charge.
const DaysPerYear = 365.0

// Config holds the fully resolved parameters of one simulation run.
type Config struct {
	WeeklyBudget       float64
	InitialCash        float64
	Weekday            time.Weekday
	Start              time.Time
	End                time.Time
	TransactionFee     float64
	AnnualExpenseRatio float64
	Multipliers        sentiment.MultiplierConfig
}

// Validate checks the run parameters
func (c Config) Validate() error {
	bad := func(msg string) error {
		return apperrors.NewConfigurationError("backtest", "Validate", msg)
	}
	if !(c.WeeklyBudget > 0) || math.IsInf(c.WeeklyBudget, 0) {
		return bad(fmt.Sprintf("weekly budget must be positive, got: %.2f", c.WeeklyBudget))
	}
	if c.InitialCash < 0 || math.IsNaN(c.InitialCash) {
		return bad(fmt.Sprintf("initial cash cannot be negative, got: %.2f", c.InitialCash))
	}
	if c.TransactionFee < 0 || math.IsNaN(c.TransactionFee) {
		return bad(fmt.Sprintf("transaction fee cannot be negative, got: %.2f", c.TransactionFee))
	}
	if c.AnnualExpenseRatio < 0 || c.AnnualExpenseRatio > 1 || math.IsNaN(c.AnnualExpenseRatio) {
		return bad(fmt.Sprintf("expense ratio must be between 0 and 1, got: %.4f", c.AnnualExpenseRatio))
	}
	if c.Weekday < time.Sunday || c.Weekday > time.Saturday {
		return bad(fmt.Sprintf("invalid purchase weekday: %d", c.Weekday))
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return bad("start and end dates are required")
	}
	if c.Start.After(c.End) {
		return bad(fmt.Sprintf("start date %s is after end date %s",
			c.Start.Format(types.DateLayout), c.End.Format(types.DateLayout)))
	}
	if err := c.Multipliers.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "backtest", "Validate")
	}
	return nil
}
