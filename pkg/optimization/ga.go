package optimization

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
)

// GA defaults
const (
	GAPopulationSize   = 25
	GAInitialPoints    = 25
	GAMaxEvaluations   = 400
	GAMutationRate     = 0.2
	GAMutationScale    = 0.1 // stddev as a share of the bound width
	GACrossoverRate    = 0.85
	GABlendAlpha       = 0.5
	GAEliteSize        = 4
	TournamentSize     = 2
	MaxParallelWorkers = 6
	DefaultSeed        = 42
)

// GAConfig holds the genetic algorithm parameters
type GAConfig struct {
	PopulationSize int
	InitialPoints  int
	MaxEvaluations int
	MutationRate   float64
	MutationScale  float64
	CrossoverRate  float64
	BlendAlpha     float64
	EliteSize      int
	TournamentSize int
	Workers        int
	Seed           int64
	Verbose        bool
}

// DefaultGAConfig returns the default genetic algorithm parameters
func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize: GAPopulationSize,
		InitialPoints:  GAInitialPoints,
		MaxEvaluations: GAMaxEvaluations,
		MutationRate:   GAMutationRate,
		MutationScale:  GAMutationScale,
		CrossoverRate:  GACrossoverRate,
		BlendAlpha:     GABlendAlpha,
		EliteSize:      GAEliteSize,
		TournamentSize: TournamentSize,
		Workers:        MaxParallelWorkers,
		Seed:           DefaultSeed,
	}
}

// Validate checks the parameters are usable
func (c GAConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got: %d", c.PopulationSize)
	}
	if c.InitialPoints < 1 {
		return fmt.Errorf("initial points must be positive, got: %d", c.InitialPoints)
	}
	if c.MaxEvaluations < 1 {
		return fmt.Errorf("max evaluations must be positive, got: %d", c.MaxEvaluations)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be between 0 and 1, got: %.2f", c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be between 0 and 1, got: %.2f", c.CrossoverRate)
	}
	if c.EliteSize < 0 || c.EliteSize >= c.PopulationSize {
		return fmt.Errorf("elite size must be in [0, population size), got: %d", c.EliteSize)
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("tournament size must be positive, got: %d", c.TournamentSize)
	}
	return nil
}

// GeneticMinimizer is a bounded real-valued genetic algorithm with elitism
// and a hard evaluation budget. Runs with the same seed and objective are
// reproducible regardless of worker count, and MinimizeSequenced numbers
// every point by its position in that reproducible order.
type GeneticMinimizer struct {
	cfg GAConfig
}

// NewGeneticMinimizer creates a minimizer
func NewGeneticMinimizer(cfg GAConfig) (*GeneticMinimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &GeneticMinimizer{cfg: cfg}, nil
}

// Config returns the algorithm parameters
func (g *GeneticMinimizer) Config() GAConfig { return g.cfg }

// Minimize runs generations until the evaluation budget is spent or ctx is
// cancelled. Cancellation is checked between generations; the best point
// found so far is returned along with ctx.Err().
func (g *GeneticMinimizer) Minimize(ctx context.Context, f Objective, bounds Bounds) (*MinimizeResult, error) {
	return g.MinimizeSequenced(ctx, func(_ int, x []float64) float64 { return f(x) }, bounds)
}

// MinimizeSequenced is Minimize with each point's submission number passed
// to the objective. The initial population takes 0..n-1 and every
// generation's children continue from there.
func (g *GeneticMinimizer) MinimizeSequenced(ctx context.Context, f SequencedObjective, bounds Bounds) (*MinimizeResult, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	budget := g.cfg.MaxEvaluations

	initial := g.cfg.InitialPoints
	if initial > budget {
		initial = budget
	}
	population := InitializePopulation(bounds, initial, rng)
	if err := g.evaluate(ctx, f, 0, population); err != nil {
		return nil, err
	}

	result := &MinimizeResult{Evaluations: len(population), Generations: 1}
	best := bestOf(population)
	result.X, result.Fun = best.Clone().Genes, best.Cost

	for result.Evaluations < budget {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		SortPopulationByCost(population)
		childCount := g.cfg.PopulationSize - g.cfg.EliteSize
		if remaining := budget - result.Evaluations; childCount > remaining {
			childCount = remaining
		}

		children := CreateNextGeneration(population, bounds, childCount, g.cfg, rng)
		if err := g.evaluate(ctx, f, result.Evaluations, children); err != nil {
			return result, err
		}
		result.Evaluations += len(children)
		result.Generations++

		elite := g.cfg.EliteSize
		if elite > len(population) {
			elite = len(population)
		}
		next := make([]*Individual, 0, elite+len(children))
		next = append(next, population[:elite]...)
		next = append(next, children...)
		population = next

		if b := bestOf(children); b != nil && b.Cost < result.Fun {
			result.X, result.Fun = b.Clone().Genes, b.Cost
		}
		if g.cfg.Verbose {
			log.Printf("🧬 Generation %d: best=%.4f avg=%.4f evals=%d/%d",
				result.Generations, result.Fun, AverageCost(population), result.Evaluations, budget)
		}
	}

	return result, nil
}

func (g *GeneticMinimizer) evaluate(ctx context.Context, f SequencedObjective, base int, population []*Individual) error {
	points := make([][]float64, len(population))
	for i, ind := range population {
		points[i] = append([]float64(nil), ind.Genes...)
	}
	costs, err := EvaluateSequenced(ctx, f, base, points, g.cfg.Workers)
	if err != nil {
		return err
	}
	for i, ind := range population {
		c := costs[i]
		if math.IsNaN(c) {
			c = math.Inf(1)
		}
		ind.Cost = c
		ind.Evaluated = true
	}
	return nil
}

// bestOf returns the lowest-cost individual, earliest on ties
func bestOf(population []*Individual) *Individual {
	var best *Individual
	for _, ind := range population {
		if best == nil || ind.Cost < best.Cost {
			best = ind
		}
	}
	return best
}

// InitializePopulation draws size points uniformly inside bounds
func InitializePopulation(bounds Bounds, size int, rng *rand.Rand) []*Individual {
	population := make([]*Individual, size)
	for i := range population {
		genes := make([]float64, bounds.Dim())
		for d := range genes {
			genes[d] = bounds.Lower[d] + rng.Float64()*bounds.Width(d)
		}
		population[i] = newIndividual(genes)
	}
	return population
}

// CreateNextGeneration breeds count children from the population
func CreateNextGeneration(population []*Individual, bounds Bounds, count int, cfg GAConfig, rng *rand.Rand) []*Individual {
	children := make([]*Individual, 0, count)
	for len(children) < count {
		parent1 := TournamentSelection(population, cfg.TournamentSize, rng)
		parent2 := TournamentSelection(population, cfg.TournamentSize, rng)
		child := Crossover(parent1, parent2, bounds, cfg.CrossoverRate, cfg.BlendAlpha, rng)
		Mutate(child, bounds, cfg.MutationRate, cfg.MutationScale, rng)
		children = append(children, child)
	}
	return children
}

// TournamentSelection picks the lowest-cost of tournamentSize random draws
func TournamentSelection(population []*Individual, tournamentSize int, rng *rand.Rand) *Individual {
	best := population[rng.Intn(len(population))]

	for i := 1; i < tournamentSize; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Cost < best.Cost {
			best = candidate
		}
	}

	return best
}

// Crossover creates a child by BLX-alpha blending of two parents. Without
// crossover the child copies parent1.
func Crossover(parent1, parent2 *Individual, bounds Bounds, rate, alpha float64, rng *rand.Rand) *Individual {
	genes := make([]float64, len(parent1.Genes))
	copy(genes, parent1.Genes)

	if rng.Float64() < rate {
		for d := range genes {
			lo := math.Min(parent1.Genes[d], parent2.Genes[d])
			hi := math.Max(parent1.Genes[d], parent2.Genes[d])
			span := hi - lo
			v := lo - alpha*span + rng.Float64()*(1+2*alpha)*span
			genes[d] = bounds.Clamp(d, v)
		}
	}

	return newIndividual(genes)
}

// Mutate perturbs each gene with probability rate by gaussian noise scaled to
// the bound width, clamped back into bounds
func Mutate(ind *Individual, bounds Bounds, rate, scale float64, rng *rand.Rand) {
	for d := range ind.Genes {
		if rng.Float64() < rate {
			ind.Genes[d] = bounds.Clamp(d, ind.Genes[d]+rng.NormFloat64()*scale*bounds.Width(d))
		}
	}
	ind.Evaluated = false
}
