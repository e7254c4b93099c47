package recorder

import (
	"context"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) StartSession(_ context.Context, _ optimization.SessionInfo) error { return nil }
func (n *NoopRecorder) RecordEvaluation(_ context.Context, _ string, _ optimization.Evaluation) error {
	return nil
}
func (n *NoopRecorder) FinishSession(_ context.Context, _ *optimization.SearchReport) error {
	return nil
}
func (n *NoopRecorder) TopEvaluations(_ context.Context, _ string, _ int) ([]StoredEvaluation, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
