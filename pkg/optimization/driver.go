package optimization

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/monitoring"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
)

const (
	// PenaltyValue is returned for infeasible or failed candidates
	PenaltyValue = 1e6

	// Candidates with every multiplier above this are infeasible
	ConstraintThreshold = 1.0

	DefaultTopN = 10
)

// Simulator runs one backtest for a multiplier configuration
type Simulator interface {
	Run(multipliers sentiment.MultiplierConfig) (*backtest.RunResult, error)
	Config() backtest.Config
}

// Evaluation is one successful objective call. Index is the submission
// number of the call; penalized calls use up an index too.
type Evaluation struct {
	Index           int
	Multipliers     sentiment.MultiplierConfig
	FinalValue      float64
	DCAFinalValue   float64
	ReturnPct       float64
	DCAReturnPct    float64
	ExcessReturnPct float64
	Weeks           int
	Duration        time.Duration
}

// SessionInfo describes a search when it starts
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	Bounds    Bounds
	Config    backtest.Config
}

// SearchReport summarizes a finished search
type SearchReport struct {
	SessionID            string
	StartedAt            time.Time
	Duration             time.Duration
	Best                 Evaluation
	BestValue            float64
	BestParams           sentiment.MultiplierConfig
	TotalEvaluations     int
	ObjectiveCalls       int
	ConstraintViolations int
	SimulationFailures   int
	Generations          int
	Top                  []Evaluation
	Config               backtest.Config
}

// EvaluationSink persists search sessions
type EvaluationSink interface {
	StartSession(ctx context.Context, info SessionInfo) error
	RecordEvaluation(ctx context.Context, sessionID string, ev Evaluation) error
	FinishSession(ctx context.Context, report *SearchReport) error
}

// ProgressTracker receives live search progress
type ProgressTracker interface {
	StartSession(sessionID string, budget int)
	RecordEvaluation(value float64, err error)
	Finish()
}

// EvalLogger writes per-evaluation log lines
type EvalLogger interface {
	Eval(format string, args ...interface{})
}

// Driver adapts the backtest engine to a Minimizer objective and keeps the
// evaluation history. Objective is safe for concurrent use.
type Driver struct {
	sim       Simulator
	minimizer Minimizer
	bounds    Bounds
	topN      int
	budget    int

	sink     EvaluationSink
	progress ProgressTracker
	evalLog  EvalLogger

	mu        sync.Mutex
	ctx       context.Context
	sessionID string
	history   []Evaluation
	calls     int
	nextSeq   int
	errStats  *apperrors.ErrorStats
}

// NewDriver creates a search driver
func NewDriver(sim Simulator, minimizer Minimizer, bounds Bounds) *Driver {
	return &Driver{
		sim:       sim,
		minimizer: minimizer,
		bounds:    bounds,
		topN:      DefaultTopN,
		ctx:       context.Background(),
		errStats:  apperrors.NewErrorStats(20),
	}
}

// SetTopN sets how many ranked evaluations the report carries
func (d *Driver) SetTopN(n int) {
	if n > 0 {
		d.topN = n
	}
}

// SetBudget sets the evaluation budget reported to the progress tracker
func (d *Driver) SetBudget(n int) { d.budget = n }

// SetSink attaches a persistence sink
func (d *Driver) SetSink(sink EvaluationSink) { d.sink = sink }

// SetProgress attaches a live progress tracker
func (d *Driver) SetProgress(p ProgressTracker) { d.progress = p }

// SetEvalLogger attaches a session log
func (d *Driver) SetEvalLogger(l EvalLogger) { d.evalLog = l }

// ErrorStats returns constraint and simulation failure counts
func (d *Driver) ErrorStats() *apperrors.ErrorStats { return d.errStats }

// Objective returns the negated final sentiment portfolio value, or
// PenaltyValue when the candidate is infeasible or the simulation fails.
// Each call takes the next evaluation index.
func (d *Driver) Objective(x []float64) float64 {
	d.mu.Lock()
	seq := d.nextSeq
	d.nextSeq++
	d.mu.Unlock()
	return d.ObjectiveAt(seq, x)
}

// ObjectiveAt is Objective for a point the minimizer numbered itself. The
// evaluation is recorded under index seq, so concurrent runs produce the
// same history as sequential ones.
func (d *Driver) ObjectiveAt(seq int, x []float64) float64 {
	d.mu.Lock()
	d.calls++
	if seq >= d.nextSeq {
		d.nextSeq = seq + 1
	}
	ctx, sessionID := d.ctx, d.sessionID
	d.mu.Unlock()

	if len(x) != sentiment.NumCategories {
		return d.penalize(apperrors.NewConstraintError("optimization", "Objective",
			fmt.Sprintf("expected %d multipliers, got %d", sentiment.NumCategories, len(x))), monitoring.OutcomeConstraint)
	}
	var m sentiment.MultiplierConfig
	copy(m[:], x)

	if m.AllAbove(ConstraintThreshold) {
		return d.penalize(apperrors.NewConstraintError("optimization", "Objective",
			fmt.Sprintf("all multipliers above %.1f: %s", ConstraintThreshold, m)), monitoring.OutcomeConstraint)
	}
	if err := m.Validate(); err != nil {
		return d.penalize(apperrors.Wrap(err, apperrors.ErrorCategoryConstraint, "optimization", "Objective"), monitoring.OutcomeConstraint)
	}

	start := time.Now()
	result, err := d.simulate(m)
	elapsed := time.Since(start)
	monitoring.ObserveSimulation(elapsed)
	if err != nil {
		log.Printf("❌ Simulation failed for %s: %v", m, err)
		if d.evalLog != nil {
			d.evalLog.Eval("FAILED %s: %v", m, err)
		}
		return d.penalize(apperrors.NewSimulationError("optimization", "Objective", err).
			WithContext("multipliers", m.String()), monitoring.OutcomeFailure)
	}

	summary := backtest.Summarize(result, d.sim.Config(), m)
	ev := Evaluation{
		Index:           seq,
		Multipliers:     m,
		FinalValue:      summary.Sentiment.FinalValue,
		DCAFinalValue:   summary.DCA.FinalValue,
		ReturnPct:       summary.Sentiment.ReturnPct,
		DCAReturnPct:    summary.DCA.ReturnPct,
		ExcessReturnPct: summary.ExcessReturnPct,
		Weeks:           result.TotalWeeks,
		Duration:        elapsed,
	}

	d.mu.Lock()
	d.history = append(d.history, ev)
	best := d.bestLocked()
	d.mu.Unlock()

	monitoring.RecordEvaluation(monitoring.OutcomeOK)
	monitoring.UpdateBestValue(best.FinalValue)
	monitoring.UpdateSimulatedWeeks(ev.Weeks)
	if d.progress != nil {
		d.progress.RecordEvaluation(ev.FinalValue, nil)
	}
	if d.evalLog != nil {
		d.evalLog.Eval("#%d %s : $%.2f (DCA $%.2f, Excess %.2f%%)",
			ev.Index+1, m, ev.FinalValue, ev.DCAFinalValue, ev.ExcessReturnPct)
	}
	if d.sink != nil && sessionID != "" {
		if err := d.sink.RecordEvaluation(ctx, sessionID, ev); err != nil {
			log.Printf("⚠️ Failed to record evaluation %d: %v", ev.Index, err)
		}
	}

	return -ev.FinalValue
}

func (d *Driver) simulate(m sentiment.MultiplierConfig) (result *backtest.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("simulation panicked: %v", r)
		}
	}()
	result, err = d.sim.Run(m)
	if err == nil && result == nil {
		err = fmt.Errorf("simulation returned no result")
	}
	return result, err
}

func (d *Driver) penalize(err *apperrors.BacktestError, outcome string) float64 {
	d.errStats.RecordError(err)
	monitoring.RecordEvaluation(outcome)
	if d.progress != nil {
		d.progress.RecordEvaluation(0, err)
	}
	return PenaltyValue
}

// History returns a copy of all successful evaluations ordered by index
func (d *Driver) History() []Evaluation {
	d.mu.Lock()
	history := append([]Evaluation(nil), d.history...)
	d.mu.Unlock()

	sort.Slice(history, func(i, j int) bool { return history[i].Index < history[j].Index })
	return history
}

// Calls returns the number of objective calls including penalized ones
func (d *Driver) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// TopN returns up to n evaluations by final value descending, then index
// ascending
func (d *Driver) TopN(n int) []Evaluation {
	ranked := d.History()
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalValue != ranked[j].FinalValue {
			return ranked[i].FinalValue > ranked[j].FinalValue
		}
		return ranked[i].Index < ranked[j].Index
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Best returns the highest-value evaluation
func (d *Driver) Best() (Evaluation, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.history) == 0 {
		return Evaluation{}, false
	}
	return d.bestLocked(), true
}

func (d *Driver) bestLocked() Evaluation {
	best := d.history[0]
	for _, ev := range d.history[1:] {
		if ev.FinalValue > best.FinalValue || (ev.FinalValue == best.FinalValue && ev.Index < best.Index) {
			best = ev
		}
	}
	return best
}

// Search runs the minimizer and builds the report. A cancelled search with
// at least one successful evaluation returns its partial report together
// with the context error.
func (d *Driver) Search(ctx context.Context) (*SearchReport, error) {
	if d.bounds.Dim() != sentiment.NumCategories {
		return nil, apperrors.NewConfigurationError("optimization", "Search",
			fmt.Sprintf("bounds must have %d dimensions, got %d", sentiment.NumCategories, d.bounds.Dim()))
	}

	started := time.Now()
	sessionID := uuid.NewString()

	d.mu.Lock()
	d.ctx, d.sessionID = ctx, sessionID
	d.history, d.calls, d.nextSeq = nil, 0, 0
	d.errStats = apperrors.NewErrorStats(20)
	d.mu.Unlock()

	if d.progress != nil {
		d.progress.StartSession(sessionID, d.budget)
		defer d.progress.Finish()
	}
	if d.sink != nil {
		info := SessionInfo{ID: sessionID, StartedAt: started, Bounds: d.bounds, Config: d.sim.Config()}
		if err := d.sink.StartSession(ctx, info); err != nil {
			log.Printf("⚠️ Failed to record search session: %v", err)
		}
	}

	log.Printf("🔍 Starting multiplier search %s", sessionID)
	var res *MinimizeResult
	var searchErr error
	if sm, ok := d.minimizer.(SequencedMinimizer); ok {
		res, searchErr = sm.MinimizeSequenced(ctx, d.ObjectiveAt, d.bounds)
	} else {
		res, searchErr = d.minimizer.Minimize(ctx, d.Objective, d.bounds)
	}

	best, ok := d.Best()
	if !ok {
		if searchErr != nil {
			return nil, fmt.Errorf("search failed: %w", searchErr)
		}
		return nil, apperrors.New(apperrors.ErrorCategorySimulation, "optimization", "Search",
			"no feasible candidate was simulated successfully")
	}

	report := &SearchReport{
		SessionID:            sessionID,
		StartedAt:            started,
		Duration:             time.Since(started),
		Best:                 best,
		BestValue:            best.FinalValue,
		BestParams:           best.Multipliers,
		TotalEvaluations:     len(d.History()),
		ObjectiveCalls:       d.Calls(),
		ConstraintViolations: d.errStats.Count(apperrors.ErrorCategoryConstraint),
		SimulationFailures:   d.errStats.Count(apperrors.ErrorCategorySimulation),
		Top:                  d.TopN(d.topN),
		Config:               d.sim.Config(),
	}
	if res != nil {
		report.Generations = res.Generations
	}

	if d.sink != nil {
		if err := d.sink.FinishSession(context.WithoutCancel(ctx), report); err != nil {
			log.Printf("⚠️ Failed to finalize search session: %v", err)
		}
	}
	log.Printf("✅ Search finished: %d evaluations, best $%.2f (%s)", report.TotalEvaluations, report.BestValue, report.BestParams)

	return report, searchErr
}
