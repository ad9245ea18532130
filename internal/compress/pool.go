package compress

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var (
	// ErrPoolBusy is returned when the worker pool is at capacity
	ErrPoolBusy = errors.New("worker pool is busy, please retry later")
)

// Job is one queued compression.
type Job struct {
	Source  *Source
	Request Request
	Result  chan<- JobResult
}

// JobResult is the outcome of a queued compression.
type JobResult struct {
	Result *Result
	Err    error
}

// WorkerPool runs compressions on a fixed set of worker goroutines so
// concurrent uploads cannot each spawn an unbounded encode.
type WorkerPool struct {
	compressor *Compressor
	jobs       chan Job
	workers    int
	wg         sync.WaitGroup
	once       sync.Once
}

// NewWorkerPool creates a pool of the given size around a Compressor.
func NewWorkerPool(workers int, compressor *Compressor) *WorkerPool {
	return &WorkerPool{
		compressor: compressor,
		jobs:       make(chan Job, workers*2),
		workers:    workers,
	}
}

// Start starts the worker goroutines. Safe to call more than once.
func (p *WorkerPool) Start() {
	p.once.Do(func() {
		log.Printf("Starting worker pool with %d workers", p.workers)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		res, err := p.compressor.Compress(job.Source, job.Request)

		select {
		case job.Result <- JobResult{Result: res, Err: err}:
		default:
			log.Printf("Worker %d: result channel full or closed", id)
		}
	}
}

// Submit queues a compression and waits for its result. Returns
// ErrPoolBusy immediately when the queue is full.
func (p *WorkerPool) Submit(ctx context.Context, src *Source, req Request) (*Result, error) {
	p.Start()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resultChan := make(chan JobResult, 1)
	job := Job{
		Source:  src,
		Request: req,
		Result:  resultChan,
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.jobs <- job:
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case jr := <-resultChan:
			return jr.Result, jr.Err
		}
	default:
		return nil, ErrPoolBusy
	}
}

// SubmitWithRetry retries Submit with a short backoff while the pool
// reports busy.
func (p *WorkerPool) SubmitWithRetry(ctx context.Context, src *Source, req Request, maxRetries int) (*Result, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		result, err := p.Submit(ctx, src, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrPoolBusy) {
			return nil, err
		}
		lastErr = err

		waitTime := time.Duration(i+1) * 10 * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return nil, lastErr
}

// Stop drains the queue and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	log.Printf("Worker pool stopped")
}

// Stats returns the queued job count and remaining queue capacity.
func (p *WorkerPool) Stats() (queued, free int) {
	return len(p.jobs), cap(p.jobs) - len(p.jobs)
}
