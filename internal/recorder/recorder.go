package recorder

import (
	"context"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// StoredEvaluation is an evaluation row read back from the store.
type StoredEvaluation struct {
	SessionID       string
	Index           int
	Multipliers     sentiment.MultiplierConfig
	FinalValue      float64
	DCAFinalValue   float64
	ExcessReturnPct float64
}

// Recorder persists parameter search sessions for later analysis.
type Recorder interface {
	optimization.EvaluationSink
	TopEvaluations(ctx context.Context, sessionID string, n int) ([]StoredEvaluation, error)
	Close() error
}
