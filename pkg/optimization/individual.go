package optimization

import "sort"

// Individual is one candidate point in the genetic search
type Individual struct {
	Genes     []float64
	Cost      float64
	Evaluated bool
}

func newIndividual(genes []float64) *Individual {
	return &Individual{Genes: genes}
}

// Clone copies the individual including its genes
func (ind *Individual) Clone() *Individual {
	genes := make([]float64, len(ind.Genes))
	copy(genes, ind.Genes)
	return &Individual{Genes: genes, Cost: ind.Cost, Evaluated: ind.Evaluated}
}

// SortPopulationByCost sorts ascending (best first). The sort is stable so
// equal costs keep their generation order.
func SortPopulationByCost(population []*Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Cost < population[j].Cost
	})
}

// AverageCost returns the mean cost of the population
func AverageCost(population []*Individual) float64 {
	if len(population) == 0 {
		return 0
	}
	sum := 0.0
	for _, ind := range population {
		sum += ind.Cost
	}
	return sum / float64(len(population))
}
