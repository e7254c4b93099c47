package optimization

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"
	"time"
)

// WorkerPool evaluates candidate points in parallel
type WorkerPool struct {
	workerCount int
	objective   SequencedObjective
	jobQueue    chan EvaluationJob
	resultQueue chan EvaluationResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// EvaluationJob is a single point to evaluate
type EvaluationJob struct {
	Index int
	Seq   int
	X     []float64
}

// EvaluationResult is the cost of one job
type EvaluationResult struct {
	Index    int
	Cost     float64
	Duration time.Duration
	Error    error
}

// NewWorkerPool creates a pool. workerCount <= 0 uses runtime.NumCPU().
func NewWorkerPool(ctx context.Context, objective SequencedObjective, workerCount int, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		objective:   objective,
		jobQueue:    make(chan EvaluationJob, jobBufferSize),
		resultQueue: make(chan EvaluationResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the job queue and waits for in-flight jobs
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob submits a job to the pool
func (wp *WorkerPool) SubmitJob(job EvaluationJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel
func (wp *WorkerPool) GetResults() <-chan EvaluationResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job EvaluationJob) (result EvaluationResult) {
	start := time.Now()
	result = EvaluationResult{Index: job.Index}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Objective panicked on candidate %d: %v", job.Index, r)
			result.Cost = math.Inf(1)
			result.Error = fmt.Errorf("objective panicked: %v", r)
		}
		result.Duration = time.Since(start)
	}()

	result.Cost = wp.objective(job.Seq, job.X)
	return result
}

// EvaluateAll evaluates every point and returns costs in input order.
// Panicking evaluations cost +Inf.
func EvaluateAll(ctx context.Context, objective Objective, points [][]float64, workers int) ([]float64, error) {
	return EvaluateSequenced(ctx, func(_ int, x []float64) float64 { return objective(x) }, 0, points, workers)
}

// EvaluateSequenced is EvaluateAll for a sequenced objective. Point i is
// passed seq base+i whichever worker picks it up.
func EvaluateSequenced(ctx context.Context, objective SequencedObjective, base int, points [][]float64, workers int) ([]float64, error) {
	costs := make([]float64, len(points))
	if len(points) == 0 {
		return costs, nil
	}
	if workers > len(points) {
		workers = len(points)
	}

	pool := NewWorkerPool(ctx, objective, workers, len(points))
	pool.Start()

	var submitErr error
	for i, x := range points {
		if err := pool.SubmitJob(EvaluationJob{Index: i, Seq: base + i, X: x}); err != nil {
			submitErr = err
			break
		}
	}
	pool.Stop()

	received := 0
	for res := range pool.GetResults() {
		costs[res.Index] = res.Cost
		received++
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if received != len(points) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("evaluated %d of %d candidates", received, len(points))
	}
	return costs, nil
}
