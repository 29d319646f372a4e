package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool is a fixed-size worker pool. Jobs receive the context the pool was
// created with; cancelling that context is visible to running jobs, but every
// job that was accepted still delivers its result so partial work is never
// lost.
type Pool struct {
	workers  int
	jobQueue chan Job
	results  chan Result
	wg       sync.WaitGroup
	ctx      context.Context
}

// NewPool creates a new worker pool with the specified number of workers.
// Jobs execute under ctx.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2), // Buffered to prevent blocking
		results:  make(chan Result, workers*2),
		ctx:      ctx,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobQueue {
		p.results <- job.Execute(p.ctx)
	}
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) {
	p.jobQueue <- job
}

// Close marks the end of submissions. Workers exit once the queue drains.
func (p *Pool) Close() {
	close(p.jobQueue)
}

// Wait collects results in completion order until every worker has exited.
// It returns only after Close.
func (p *Pool) Wait() []Result {
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Run executes jobs on a pool of the given size and returns every result.
// Submission happens on a separate goroutine so results are drained while
// jobs are still being queued.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	pool := NewPool(ctx, workers)
	pool.Start()

	go func() {
		for _, job := range jobs {
			pool.Submit(job)
		}
		pool.Close()
	}()

	return pool.Wait()
}
