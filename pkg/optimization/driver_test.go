package optimization

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/timeseries"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

type mockSimulator struct {
	calls  atomic.Int32
	value  func(m sentiment.MultiplierConfig) float64
	err    error
	panics bool
}

func (s *mockSimulator) Run(m sentiment.MultiplierConfig) (*backtest.RunResult, error) {
	s.calls.Add(1)
	if s.panics {
		panic("index out of range")
	}
	if s.err != nil {
		return nil, s.err
	}
	v := 1000.0
	if s.value != nil {
		v = s.value(m)
	}
	return &backtest.RunResult{
		SentimentSnapshots:      []backtest.Snapshot{{PortfolioValue: v}},
		DCASnapshots:            []backtest.Snapshot{{PortfolioValue: 1000}},
		TotalWeeks:              2,
		SentimentBudgetReceived: 1000,
		DCABudgetReceived:       1000,
	}, nil
}

func (s *mockSimulator) Config() backtest.Config {
	return backtest.Config{WeeklyBudget: 500, Weekday: time.Tuesday}
}

type fakeSink struct {
	mu       sync.Mutex
	started  []SessionInfo
	recorded []Evaluation
	finished []*SearchReport
}

func (f *fakeSink) StartSession(_ context.Context, info SessionInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, info)
	return nil
}

func (f *fakeSink) RecordEvaluation(_ context.Context, _ string, ev Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, ev)
	return nil
}

func (f *fakeSink) FinishSession(_ context.Context, report *SearchReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, report)
	return nil
}

// sumValue rewards larger multipliers so the constraint is the binding limit
func sumValue(m sentiment.MultiplierConfig) float64 {
	total := 1000.0
	for _, v := range m {
		total += v * 100
	}
	return total
}

func newTestDriver(sim Simulator) *Driver {
	return NewDriver(sim, nil, UniformBounds(sentiment.NumCategories, 0, 2))
}

// TestDriver_Objective_ConstraintSkipsSimulator checks all-above-one is penalized without a run
func TestDriver_Objective_ConstraintSkipsSimulator(t *testing.T) {
	sim := &mockSimulator{}
	d := newTestDriver(sim)

	got := d.Objective([]float64{1.01, 1.5, 2, 1.2, 1.0001})

	assert.Equal(t, PenaltyValue, got)
	assert.Zero(t, sim.calls.Load())
	assert.Empty(t, d.History())
	assert.Equal(t, 1, d.ErrorStats().Count(apperrors.ErrorCategoryConstraint))
}

// TestDriver_Objective_BoundaryOneIsFeasible checks exactly 1.0 does not trip the constraint
func TestDriver_Objective_BoundaryOneIsFeasible(t *testing.T) {
	sim := &mockSimulator{value: sumValue}
	d := newTestDriver(sim)

	got := d.Objective([]float64{1.0, 1.5, 2, 1.2, 1.1})

	assert.Equal(t, int32(1), sim.calls.Load())
	assert.InDelta(t, -(1000.0 + 680), got, 1e-9)
}

// TestDriver_Objective_ReturnsNegatedValue checks the cost and recorded evaluation
func TestDriver_Objective_ReturnsNegatedValue(t *testing.T) {
	sim := &mockSimulator{value: func(sentiment.MultiplierConfig) float64 { return 1200 }}
	d := newTestDriver(sim)

	got := d.Objective([]float64{2, 1.5, 1, 0.5, 0.2})
	require.Equal(t, -1200.0, got)

	hist := d.History()
	require.Len(t, hist, 1)
	ev := hist[0]
	assert.Equal(t, 0, ev.Index)
	assert.Equal(t, sentiment.MultiplierConfig{2, 1.5, 1, 0.5, 0.2}, ev.Multipliers)
	assert.Equal(t, 1200.0, ev.FinalValue)
	assert.Equal(t, 1000.0, ev.DCAFinalValue)
	assert.InDelta(t, 20.0, ev.ReturnPct, 1e-9)
	assert.InDelta(t, 20.0, ev.ExcessReturnPct, 1e-9)
	assert.Equal(t, 2, ev.Weeks)
}

// TestDriver_Objective_FailureIsPenalized checks simulator errors become the penalty
func TestDriver_Objective_FailureIsPenalized(t *testing.T) {
	sim := &mockSimulator{err: errors.New("no usable dates")}
	d := newTestDriver(sim)

	assert.Equal(t, PenaltyValue, d.Objective([]float64{0.5, 0.5, 0.5, 0.5, 0.5}))
	assert.Empty(t, d.History())
	assert.Equal(t, 1, d.ErrorStats().Count(apperrors.ErrorCategorySimulation))
}

// TestDriver_Objective_PanicIsPenalized checks a panicking simulation is recovered
func TestDriver_Objective_PanicIsPenalized(t *testing.T) {
	sim := &mockSimulator{panics: true}
	d := newTestDriver(sim)

	var got float64
	assert.NotPanics(t, func() { got = d.Objective([]float64{0.5, 0.5, 0.5, 0.5, 0.5}) })
	assert.Equal(t, PenaltyValue, got)
	assert.Equal(t, 1, d.ErrorStats().Count(apperrors.ErrorCategorySimulation))
}

// TestDriver_Objective_InvalidVector checks wrong length and negative values are penalized
func TestDriver_Objective_InvalidVector(t *testing.T) {
	sim := &mockSimulator{}
	d := newTestDriver(sim)

	assert.Equal(t, PenaltyValue, d.Objective([]float64{0.5, 0.5}))
	assert.Equal(t, PenaltyValue, d.Objective([]float64{-0.1, 0.5, 0.5, 0.5, 0.5}))
	assert.Zero(t, sim.calls.Load())
	assert.Equal(t, 2, d.Calls())
}

// TestDriver_TopN_OrdersByValueThenIndex checks ranking and tie breaking
func TestDriver_TopN_OrdersByValueThenIndex(t *testing.T) {
	values := map[float64]float64{0.1: 1100, 0.2: 1300, 0.3: 1100, 0.4: 900, 0.5: 1300}
	sim := &mockSimulator{value: func(m sentiment.MultiplierConfig) float64 { return values[m[0]] }}
	d := newTestDriver(sim)

	for _, x0 := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		d.Objective([]float64{x0, 0, 0, 0, 0})
	}

	top := d.TopN(4)
	require.Len(t, top, 4)
	assert.Equal(t, []int{1, 4, 0, 2}, []int{top[0].Index, top[1].Index, top[2].Index, top[3].Index})
	assert.Equal(t, 1300.0, top[0].FinalValue)

	assert.Len(t, d.TopN(10), 5)

	best, ok := d.Best()
	require.True(t, ok)
	assert.Equal(t, 1, best.Index)
}

// TestDriver_Best_Empty checks Best reports no evaluations
func TestDriver_Best_Empty(t *testing.T) {
	_, ok := newTestDriver(&mockSimulator{}).Best()
	assert.False(t, ok)
}

// TestDriver_Objective_Concurrent checks history is safe under parallel evaluation
func TestDriver_Objective_Concurrent(t *testing.T) {
	sim := &mockSimulator{value: sumValue}
	d := newTestDriver(sim)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Objective([]float64{float64(i%10) / 10, 0.5, 0.5, 0.5, 0.5})
		}(i)
	}
	wg.Wait()

	hist := d.History()
	require.Len(t, hist, 50)
	seen := make(map[int]bool)
	for _, ev := range hist {
		seen[ev.Index] = true
	}
	assert.Len(t, seen, 50)
}

// TestDriver_Search_ReportsAndSinks checks a search end to end with a mock simulator
func TestDriver_Search_ReportsAndSinks(t *testing.T) {
	sim := &mockSimulator{value: sumValue}
	cfg := testGAConfig()
	cfg.MaxEvaluations = 60
	g, err := NewGeneticMinimizer(cfg)
	require.NoError(t, err)

	sink := &fakeSink{}
	d := NewDriver(sim, g, UniformBounds(sentiment.NumCategories, 0, 2))
	d.SetSink(sink)
	d.SetTopN(5)

	report, err := d.Search(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.SessionID)
	assert.Equal(t, 60, report.ObjectiveCalls)
	assert.Equal(t, report.ObjectiveCalls, report.TotalEvaluations+report.ConstraintViolations)
	assert.Len(t, report.Top, 5)
	assert.Equal(t, report.Top[0].FinalValue, report.BestValue)
	assert.Equal(t, report.Best.Multipliers, report.BestParams)
	assert.False(t, report.BestParams.AllAbove(ConstraintThreshold))
	for _, ev := range d.History() {
		assert.False(t, ev.Multipliers.AllAbove(ConstraintThreshold))
	}

	require.Len(t, sink.started, 1)
	assert.Equal(t, report.SessionID, sink.started[0].ID)
	assert.Len(t, sink.recorded, report.TotalEvaluations)
	require.Len(t, sink.finished, 1)
	assert.Same(t, report, sink.finished[0])
}

// TestDriver_Search_HistoryIndependentOfWorkers checks indices follow submission order
func TestDriver_Search_HistoryIndependentOfWorkers(t *testing.T) {
	search := func(workers int) ([]Evaluation, []Evaluation) {
		cfg := testGAConfig()
		cfg.MaxEvaluations = 80
		cfg.Workers = workers
		g, err := NewGeneticMinimizer(cfg)
		require.NoError(t, err)

		// uneven run times so parallel workers finish out of order
		sim := &mockSimulator{value: func(m sentiment.MultiplierConfig) float64 {
			time.Sleep(time.Duration(int(m[0]*1000)%3) * time.Millisecond)
			return sumValue(m)
		}}
		d := NewDriver(sim, g, UniformBounds(sentiment.NumCategories, 0, 2))
		d.SetTopN(10)
		report, err := d.Search(context.Background())
		require.NoError(t, err)
		return d.History(), report.Top
	}

	seqHist, seqTop := search(1)
	parHist, parTop := search(4)

	require.Equal(t, len(seqHist), len(parHist))
	for i := range seqHist {
		assert.Equal(t, seqHist[i].Index, parHist[i].Index)
		assert.Equal(t, seqHist[i].Multipliers, parHist[i].Multipliers)
	}
	require.Equal(t, len(seqTop), len(parTop))
	for i := range seqTop {
		assert.Equal(t, seqTop[i].Index, parTop[i].Index)
	}
}

// TestDriver_ObjectiveAt_KeepsGivenIndex checks out-of-order calls land in index order
func TestDriver_ObjectiveAt_KeepsGivenIndex(t *testing.T) {
	d := newTestDriver(&mockSimulator{value: sumValue})

	d.ObjectiveAt(2, []float64{0.2, 0, 0, 0, 0})
	d.ObjectiveAt(1, []float64{1.5, 1.5, 1.5, 1.5, 1.5})
	d.ObjectiveAt(0, []float64{0.1, 0, 0, 0, 0})
	d.Objective([]float64{0.3, 0, 0, 0, 0})

	hist := d.History()
	require.Len(t, hist, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{hist[0].Index, hist[1].Index, hist[2].Index})
	assert.Equal(t, 0.1, hist[0].Multipliers[0])
	assert.Equal(t, 0.3, hist[2].Multipliers[0])
	assert.Equal(t, 4, d.Calls())
}

// TestDriver_Search_AllFailures checks a search with no successful run errors
func TestDriver_Search_AllFailures(t *testing.T) {
	sim := &mockSimulator{err: errors.New("boom")}
	cfg := testGAConfig()
	cfg.MaxEvaluations = 20
	g, err := NewGeneticMinimizer(cfg)
	require.NoError(t, err)

	_, err = NewDriver(sim, g, UniformBounds(sentiment.NumCategories, 0, 2)).Search(context.Background())
	require.Error(t, err)
	cat, ok := apperrors.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorCategorySimulation, cat)
}

// TestDriver_Search_WrongDimensions checks bounds must cover five categories
func TestDriver_Search_WrongDimensions(t *testing.T) {
	d := NewDriver(&mockSimulator{}, nil, UniformBounds(3, 0, 2))
	_, err := d.Search(context.Background())
	assert.True(t, apperrors.IsConfiguration(err))
}

// TestDriver_Search_WithEngine checks the driver against the real backtest engine
func TestDriver_Search_WithEngine(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(types.DateLayout, s)
		require.NoError(t, err)
		return d
	}
	store, err := timeseries.NewStore(
		[]types.SentimentPoint{{Date: day("2024-01-01"), Value: 10}},
		[]types.PricePoint{{Date: day("2024-01-01"), Price: 100}},
	)
	require.NoError(t, err)
	engine, err := backtest.NewEngine(backtest.Config{
		WeeklyBudget: 500,
		Weekday:      time.Tuesday,
		Start:        day("2024-01-02"),
		End:          day("2024-03-05"),
		Multipliers:  sentiment.MultiplierConfig{2, 1.5, 1, 0.5, 0.2},
	}, store)
	require.NoError(t, err)

	cfg := testGAConfig()
	cfg.MaxEvaluations = 40
	g, err := NewGeneticMinimizer(cfg)
	require.NoError(t, err)

	report, err := NewDriver(engine, g, UniformBounds(sentiment.NumCategories, 0, 2)).Search(context.Background())
	require.NoError(t, err)

	// constant price: every run ends with the full 5000 budget in shares or cash
	assert.InDelta(t, 5000.0, report.BestValue, 1e-6)
	assert.Equal(t, 10, report.Best.Weeks)
}
