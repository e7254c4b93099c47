package optimization

import (
	"context"
	"fmt"
	"math"
)

// Objective maps a candidate point to a cost. Lower is better.
type Objective func(x []float64) float64

// SequencedObjective also receives the submission number of the point,
// counted from zero across the whole minimization
type SequencedObjective func(seq int, x []float64) float64

// Minimizer searches a bounded box for the point with the lowest cost
type Minimizer interface {
	Minimize(ctx context.Context, f Objective, bounds Bounds) (*MinimizeResult, error)
}

// SequencedMinimizer is a Minimizer that numbers points in the order it
// submits them, independent of the order parallel evaluations finish
type SequencedMinimizer interface {
	Minimizer
	MinimizeSequenced(ctx context.Context, f SequencedObjective, bounds Bounds) (*MinimizeResult, error)
}

// MinimizeResult is the outcome of one minimization
type MinimizeResult struct {
	X           []float64
	Fun         float64
	Evaluations int
	Generations int
}

// Bounds is a per-dimension closed interval
type Bounds struct {
	Lower []float64
	Upper []float64
}

// UniformBounds returns n dimensions sharing the same interval
func UniformBounds(n int, lower, upper float64) Bounds {
	b := Bounds{Lower: make([]float64, n), Upper: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Lower[i] = lower
		b.Upper[i] = upper
	}
	return b
}

// Dim returns the number of dimensions
func (b Bounds) Dim() int { return len(b.Lower) }

// Validate checks the bounds describe a non-empty box
func (b Bounds) Validate() error {
	if len(b.Lower) == 0 {
		return fmt.Errorf("bounds must have at least one dimension")
	}
	if len(b.Lower) != len(b.Upper) {
		return fmt.Errorf("bounds dimension mismatch: %d lower, %d upper", len(b.Lower), len(b.Upper))
	}
	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("bound %d must be finite", i)
		}
		if lo > hi {
			return fmt.Errorf("bound %d: lower %.4f above upper %.4f", i, lo, hi)
		}
	}
	return nil
}

// Clamp pins v into dimension i
func (b Bounds) Clamp(i int, v float64) float64 {
	if v < b.Lower[i] {
		return b.Lower[i]
	}
	if v > b.Upper[i] {
		return b.Upper[i]
	}
	return v
}

// Width returns the size of dimension i
func (b Bounds) Width(i int) float64 { return b.Upper[i] - b.Lower[i] }
