package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify_Boundaries tests exact bucket edges
func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		value float64
		want  Category
	}{
		{0, ExtremeFear},
		{24, ExtremeFear},
		{25, Fear},
		{44, Fear},
		{45, Neutral},
		{55, Neutral},
		{56, Greed},
		{75, Greed},
		{76, ExtremeGreed},
		{100, ExtremeGreed},
		{24.5, Fear},
		{55.01, Greed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.value), "value %v", tt.value)
	}
}

// TestClassify_Total tests that every value in the domain lands in a bucket
func TestClassify_Total(t *testing.T) {
	prev := ExtremeFear
	for v := 0.0; v <= 100; v += 0.25 {
		c := Classify(v)
		assert.True(t, c.Valid())
		assert.GreaterOrEqual(t, int(c), int(prev), "buckets must be monotone at %v", v)
		prev = c
	}
}

// TestClassify_OutOfDomain tests the precondition panic
func TestClassify_OutOfDomain(t *testing.T) {
	assert.Panics(t, func() { Classify(math.NaN()) })
	assert.Panics(t, func() { Classify(-0.1) })
	assert.Panics(t, func() { Classify(100.1) })
}

// TestParseCategory tests keys, abbreviations and display names
func TestParseCategory(t *testing.T) {
	for _, in := range []string{"extreme_fear", "EF", "Extreme Fear", "extreme-fear"} {
		c, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, ExtremeFear, c)
	}
	_, err := ParseCategory("panic")
	assert.Error(t, err)
}

// TestCategoryCounts_Inc tests the per-bucket counter
func TestCategoryCounts_Inc(t *testing.T) {
	var cc CategoryCounts
	cc.Inc(Fear)
	cc.Inc(Fear)
	cc.Inc(Greed)
	assert.Equal(t, 2, cc[Fear])
	assert.Equal(t, 3, cc.Total())
}

// TestMultiplierConfig_FromMap tests complete, missing, and negative maps
func TestMultiplierConfig_FromMap(t *testing.T) {
	m, err := FromMap(map[string]float64{
		"extreme_fear": 2, "fear": 1.5, "neutral": 1, "greed": 0.5, "extreme_greed": 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.For(ExtremeFear))
	assert.Equal(t, 0.2, m.For(ExtremeGreed))
	assert.Equal(t, "EF=2.00, F=1.50, N=1.00, G=0.50, EG=0.20", m.String())

	_, err = FromMap(map[string]float64{"extreme_fear": 2})
	assert.ErrorContains(t, err, "missing multiplier")

	_, err = FromMap(map[string]float64{
		"extreme_fear": -1, "fear": 1.5, "neutral": 1, "greed": 0.5, "extreme_greed": 0.2,
	})
	assert.ErrorContains(t, err, "non-negative")

	_, err = FromMap(map[string]float64{
		"ef": 1, "extreme_fear": 2, "fear": 1.5, "neutral": 1, "greed": 0.5, "extreme_greed": 0.2,
	})
	assert.ErrorContains(t, err, "duplicate")
}

// TestParseMultipliers tests the command line form
func TestParseMultipliers(t *testing.T) {
	m, err := ParseMultipliers("ef=2, f=1.5,n=1,g=0.5,eg=0")
	require.NoError(t, err)
	assert.Equal(t, MultiplierConfig{2, 1.5, 1, 0.5, 0}, m)

	_, err = ParseMultipliers("ef:2")
	assert.Error(t, err)

	_, err = ParseMultipliers("ef=2,f=1.5,n=1")
	assert.ErrorContains(t, err, "missing multiplier")
}

// TestParseMultipliers_Duplicate tests that a category given twice is rejected
func TestParseMultipliers_Duplicate(t *testing.T) {
	_, err := ParseMultipliers("ef=2,ef=0.1,f=1.5,n=1,g=0.5,eg=0.2")
	assert.ErrorContains(t, err, "duplicate multiplier")

	_, err = ParseMultipliers("ef=2,extreme_fear=0.1,f=1.5,n=1,g=0.5,eg=0.2")
	assert.ErrorContains(t, err, "duplicate multiplier")
}

// TestMultiplierConfig_AllAbove tests the search constraint predicate
func TestMultiplierConfig_AllAbove(t *testing.T) {
	assert.True(t, MultiplierConfig{1.1, 1.1, 1.1, 1.1, 1.1}.AllAbove(1.0))
	assert.False(t, MultiplierConfig{1.1, 1.1, 1.0, 1.1, 1.1}.AllAbove(1.0))

	m, err := FromVector([]float64{0, 0.5, 1, 1.5, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, m.Vector())

	_, err = FromVector([]float64{1, 2})
	assert.Error(t, err)
}
