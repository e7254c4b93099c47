package sentiment

import (
	"fmt"
	"math"
	"strings"
)

// Category is one of the five ordered fear/greed buckets.
type Category int

const (
	ExtremeFear Category = iota
	Fear
	Neutral
	Greed
	ExtremeGreed
)

// NumCategories is the number of sentiment buckets
const NumCategories = 5

// Categories lists every bucket in ascending order
var Categories = [NumCategories]Category{ExtremeFear, Fear, Neutral, Greed, ExtremeGreed}

var (
	categoryNames = [NumCategories]string{"Extreme Fear", "Fear", "Neutral", "Greed", "Extreme Greed"}
	categoryKeys  = [NumCategories]string{"extreme_fear", "fear", "neutral", "greed", "extreme_greed"}
	categoryAbbr  = [NumCategories]string{"EF", "F", "N", "G", "EG"}
)

// String returns the display name, e.g. "Extreme Fear"
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Key returns the snake_case config key, e.g. "extreme_fear"
func (c Category) Key() string {
	if !c.Valid() {
		return ""
	}
	return categoryKeys[c]
}

// Abbrev returns the short report label, e.g. "EF"
func (c Category) Abbrev() string {
	if !c.Valid() {
		return ""
	}
	return categoryAbbr[c]
}

// Valid reports whether c is one of the five buckets
func (c Category) Valid() bool {
	return c >= ExtremeFear && c <= ExtremeGreed
}

// ParseCategory resolves a config key, abbreviation, or display name.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, c := range Categories {
		if norm == categoryKeys[c] || norm == strings.ToLower(categoryAbbr[c]) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown sentiment category %q", s)
}

// Classify maps an index value in [0,100] to its bucket.
// Values outside the domain are a caller bug and panic.
func Classify(value float64) Category {
	if math.IsNaN(value) || value < 0 || value > 100 {
		panic(fmt.Sprintf("sentiment: value %v outside [0,100]", value))
	}
	switch {
	case value <= 24:
		return ExtremeFear
	case value <= 44:
		return Fear
	case value <= 55:
		return Neutral
	case value <= 75:
		return Greed
	default:
		return ExtremeGreed
	}
}

// CategoryCounts is a per-bucket counter
type CategoryCounts [NumCategories]int

// Inc increments the counter for c
func (cc *CategoryCounts) Inc(c Category) { cc[c]++ }

// Total sums all buckets
func (cc CategoryCounts) Total() int {
	n := 0
	for _, v := range cc {
		n += v
	}
	return n
}
