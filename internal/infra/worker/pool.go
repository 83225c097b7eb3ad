package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of work. Errors are logged, not propagated; tasks that
// need their results collected report through their own closure state.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed set of goroutines. Submit blocks until the task
// is queued, so producers apply natural back-pressure. Stop drains the queue
// and waits for workers to finish.
type Pool struct {
	jobs chan Task
	wg   sync.WaitGroup
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: make(chan Task, workers), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			// Tasks run even after ctx is canceled so submitters waiting on
			// completion are never stranded; tasks observe ctx themselves.
			for task := range p.jobs {
				if err := task(ctx); err != nil {
					p.log.Error().Int("worker", id).Err(err).Msg("task failed")
				}
			}
		}(i)
	}
}

// Submit queues a task, blocking until there is room or ctx is done.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for queued tasks to finish.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
