// Package worker runs topic comparisons concurrently.
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

// Pool runs jobs on a fixed number of workers. Results are drained as they
// arrive, so any number of jobs may be submitted before Wait.
type Pool struct {
	workers     int
	jobQueue    chan Job
	results     chan Result
	collected   []Result
	collectDone chan struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	closeOnce   sync.Once
}

// NewPool creates a pool whose jobs run under a child of ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		jobQueue:    make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) collect() {
	defer close(p.collectDone)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- job.Execute(p.ctx)
		}
	}
}

// Submit queues a job. It returns false once the pool is cancelled.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait waits for all submitted jobs and returns their results in completion
// order. Jobs still queued when the pool is cancelled produce no result.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	p.cancelFunc()
	return p.collected
}

// Shutdown cancels running jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
