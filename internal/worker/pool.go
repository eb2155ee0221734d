package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of work executed by the pool. Execute must honor the passed
// context and must not panic; failure reporting is the job's own concern
// (transcription jobs convert errors into error-marked results).
type Job interface {
	ID() string
	Execute(ctx context.Context)
}

// Pool runs jobs on a fixed number of worker goroutines, bounding fan-out
// regardless of how many jobs are submitted.
type Pool struct {
	size int
	jobs chan Job
	wg   sync.WaitGroup
	log  *logrus.Logger
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(size, queueSize int, log *logrus.Logger) *Pool {
	return &Pool{
		size: size,
		jobs: make(chan Job, queueSize),
		log:  log,
	}
}

// Start launches the workers. Workers exit when the queue is closed via
// Wait, or when ctx is cancelled; queued jobs are skipped after cancellation.
func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			p.log.WithFields(logrus.Fields{"worker": id, "job": job.ID()}).Debug("Worker started job")
			job.Execute(ctx)
			p.log.WithFields(logrus.Fields{"worker": id, "job": job.ID()}).Debug("Worker finished job")
		}
	}
}

// Submit enqueues a job, blocking when the queue is full. Returns the context
// error if ctx is cancelled while waiting.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Wait closes the queue and blocks until every worker has exited.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
}
