package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

func d(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestNormalize_SortAndDedupe tests sorting with last-value-wins de-duplication
func TestNormalize_SortAndDedupe(t *testing.T) {
	in := []types.SentimentPoint{
		{Date: d("2024-01-03"), Value: 30},
		{Date: d("2024-01-01"), Value: 10},
		{Date: d("2024-01-03"), Value: 31},
		{Date: d("2024-01-02"), Value: 20},
	}
	out := Normalize(in)
	require.Len(t, out, 3)
	assert.Equal(t, 10.0, out[0].Value)
	assert.Equal(t, 20.0, out[1].Value)
	assert.Equal(t, 31.0, out[2].Value)
	assert.NoError(t, ValidateTimeSequence(out))

	// input untouched
	assert.Equal(t, 30.0, in[0].Value)
}

// TestValidateTimeSequence tests unordered and duplicate detection
func TestValidateTimeSequence(t *testing.T) {
	assert.NoError(t, ValidateTimeSequence([]types.PricePoint{}))
	assert.ErrorContains(t, ValidateTimeSequence([]types.PricePoint{
		{Date: d("2024-01-02")}, {Date: d("2024-01-01")},
	}), "chronological")
	assert.ErrorContains(t, ValidateTimeSequence([]types.PricePoint{
		{Date: d("2024-01-02")}, {Date: d("2024-01-02")},
	}), "duplicate")
}

// TestFilterByDateRange tests inclusive bounds
func TestFilterByDateRange(t *testing.T) {
	in := []types.PricePoint{
		{Date: d("2024-01-01"), Price: 1},
		{Date: d("2024-01-02"), Price: 2},
		{Date: d("2024-01-03"), Price: 3},
		{Date: d("2024-01-04"), Price: 4},
	}
	out := FilterByDateRange(in, d("2024-01-02"), d("2024-01-03"))
	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[0].Price)
	assert.Equal(t, 3.0, out[1].Price)
}
