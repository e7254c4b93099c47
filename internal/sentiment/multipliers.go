package sentiment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MultiplierConfig holds one investment scale factor per category.
type MultiplierConfig [NumCategories]float64

// For returns the multiplier of category c
func (m MultiplierConfig) For(c Category) float64 { return m[c] }

// Validate checks every multiplier is finite and non-negative
func (m MultiplierConfig) Validate() error {
	for _, c := range Categories {
		v := m[c]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("multiplier for %s must be a non-negative number, got: %v", c, v)
		}
	}
	return nil
}

// AllAbove reports whether every multiplier is strictly greater than threshold
func (m MultiplierConfig) AllAbove(threshold float64) bool {
	for _, v := range m {
		if !(v > threshold) {
			return false
		}
	}
	return true
}

// Vector returns the multipliers in category order
func (m MultiplierConfig) Vector() []float64 {
	out := make([]float64, NumCategories)
	copy(out, m[:])
	return out
}

// ToMap returns the multipliers keyed by config key
func (m MultiplierConfig) ToMap() map[string]float64 {
	out := make(map[string]float64, NumCategories)
	for _, c := range Categories {
		out[c.Key()] = m[c]
	}
	return out
}

// String renders the multipliers as "EF=2.00, F=1.50, N=1.00, G=0.50, EG=0.20"
func (m MultiplierConfig) String() string {
	parts := make([]string, 0, NumCategories)
	for _, c := range Categories {
		parts = append(parts, fmt.Sprintf("%s=%.2f", c.Abbrev(), m[c]))
	}
	return strings.Join(parts, ", ")
}

// FromVector builds a config from a 5-vector in category order
func FromVector(x []float64) (MultiplierConfig, error) {
	var m MultiplierConfig
	if len(x) != NumCategories {
		return m, fmt.Errorf("expected %d multipliers, got %d", NumCategories, len(x))
	}
	copy(m[:], x)
	return m, m.Validate()
}

// FromMap builds a config from a map keyed by category. Every category must
// appear exactly once.
func FromMap(values map[string]float64) (MultiplierConfig, error) {
	var m MultiplierConfig
	var seen [NumCategories]bool
	for k, v := range values {
		c, err := ParseCategory(k)
		if err != nil {
			return m, err
		}
		if seen[c] {
			return m, fmt.Errorf("duplicate multiplier for %s", c)
		}
		seen[c] = true
		m[c] = v
	}
	for _, c := range Categories {
		if !seen[c] {
			return m, fmt.Errorf("missing multiplier for %s", c)
		}
	}
	return m, m.Validate()
}

// ParseMultipliers parses "ef=2,f=1.5,n=1,g=0.5,eg=0.2" as used on the command line.
// Each category may appear once, under any of its names.
func ParseMultipliers(s string) (MultiplierConfig, error) {
	var m MultiplierConfig
	var seen [NumCategories]bool
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return MultiplierConfig{}, fmt.Errorf("invalid multiplier %q, expected key=value", part)
		}
		c, err := ParseCategory(strings.TrimSpace(kv[0]))
		if err != nil {
			return MultiplierConfig{}, err
		}
		if seen[c] {
			return MultiplierConfig{}, fmt.Errorf("duplicate multiplier for %s", c)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return MultiplierConfig{}, fmt.Errorf("invalid multiplier value %q: %w", kv[1], err)
		}
		seen[c] = true
		m[c] = v
	}
	for _, c := range Categories {
		if !seen[c] {
			return MultiplierConfig{}, fmt.Errorf("missing multiplier for %s", c)
		}
	}
	return m, m.Validate()
}
