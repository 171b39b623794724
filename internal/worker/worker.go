package worker

import (
	"context"
	"sync"
)

// ProcessFunc handles the matching work for one recipient.
type ProcessFunc func(ctx context.Context, recipientID string) error

// Pool runs per-recipient jobs on a fixed number of workers. Each
// recipient is handled by exactly one worker at a time, which
// serializes all delivery-record writes for that recipient within a
// cycle; different recipients proceed concurrently.
type Pool struct {
	numWorkers int
	jobs       chan string
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, bufferSize int, processor ProcessFunc) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan string, bufferSize),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case recipientID, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, recipientID)
		}
	}
}

// Submit queues one recipient. Returns false when ctx is cancelled
// before the job can be queued, so a timed-out cycle never blocks on a
// full buffer with stopped workers.
func (p *Pool) Submit(ctx context.Context, recipientID string) bool {
	select {
	case p.jobs <- recipientID:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop closes the job channel and blocks until all queued jobs are
// processed. This is the cycle barrier: no matching work leaks past it.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
