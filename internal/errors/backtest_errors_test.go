package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBacktestError_Error tests message formatting with and without an underlying error
func TestBacktestError_Error(t *testing.T) {
	e := NewDataUnavailableError("store", "NewStore", "sentiment series is empty")
	assert.Equal(t, "[DATA_UNAVAILABLE:store] NewStore: sentiment series is empty", e.Error())

	w := NewNetworkError("yahoo", "FetchPrices", fmt.Errorf("dial tcp: refused"))
	assert.Contains(t, w.Error(), "dial tcp: refused")
	assert.Contains(t, w.Error(), "[NETWORK:yahoo]")
}

// TestCategoryOf_WrappedChain tests that categories survive fmt.Errorf wrapping
func TestCategoryOf_WrappedChain(t *testing.T) {
	base := NewDataUnavailableError("engine", "Run", "no usable dates")
	wrapped := fmt.Errorf("backtest failed: %w", base)

	c, ok := CategoryOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorCategoryDataUnavailable, c)
	assert.True(t, IsDataUnavailable(wrapped))
	assert.False(t, IsLookupMiss(wrapped))

	_, ok = CategoryOf(stderrors.New("plain"))
	assert.False(t, ok)
}

// TestBacktestError_IsFatal tests which categories stop a run
func TestBacktestError_IsFatal(t *testing.T) {
	assert.True(t, New(ErrorCategoryDataUnavailable, "c", "o", "m").IsFatal())
	assert.True(t, New(ErrorCategoryConfiguration, "c", "o", "m").IsFatal())
	assert.False(t, New(ErrorCategoryLookupMiss, "c", "o", "m").IsFatal())
	assert.False(t, New(ErrorCategoryConstraint, "c", "o", "m").IsFatal())
}

// TestErrorStats_RecordError tests counting and the recent-error window
func TestErrorStats_RecordError(t *testing.T) {
	stats := NewErrorStats(2)
	stats.RecordError(NewConstraintError("search", "Objective", "all multipliers above 1"))
	stats.RecordError(NewSimulationError("search", "Objective", fmt.Errorf("boom")))
	stats.RecordError(NewSimulationError("search", "Objective", fmt.Errorf("boom again")))
	stats.RecordError(nil)

	assert.Equal(t, 3, stats.Total())
	assert.Equal(t, 2, stats.Count(ErrorCategorySimulation))
	assert.Len(t, stats.RecentErrors, 2)
	assert.InDelta(t, 1.0/3.0, stats.GetErrorRate(ErrorCategoryConstraint), 1e-12)
}
