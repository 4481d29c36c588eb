// Package worker runs jobs on a fixed set of goroutines. Jobs sharing a
// key always land on the same worker and therefore run in submission order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/livescore/internal/adapters/mq/queue"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
)

const (
	defaultQueueSize      = 1024
	poolShutdownTimeout   = 30 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

// Job is one unit of work. Key selects the worker.
type Job struct {
	Key  string
	Name string
	Run  func(ctx context.Context) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan Job
}

// Worker processes jobs from its queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "job failed",
					logger.String("job", job.Name),
					logger.String("key", job.Key),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs a single job. Failures are reported, never retried.
func (w *InMemoryWorker) process(ctx context.Context, job Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "job_error")
		}
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if job.Run == nil {
		return ErrEmptyJob
	}
	return job.Run(ctx)
}

// Pool manages a fixed set of workers, each with its own queue.
type Pool struct {
	workers   []*InMemoryWorker
	queues    []*queue.InMemoryQueue[Job]
	queueSize int

	mu      sync.RWMutex
	started bool
	stopped bool

	logger logger.Logger
}

// NewPool creates a worker pool. A count below one selects runtime.NumCPU().
func NewPool(workerCount int, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	p.workers = make([]*InMemoryWorker, workerCount)
	p.queues = make([]*queue.InMemoryQueue[Job], workerCount)
	for i := 0; i < workerCount; i++ {
		p.queues[i] = queue.NewInMemoryQueue[Job](queue.WithCapacity(p.queueSize))
		name := "worker-" + strconv.Itoa(i)
		p.workers[i] = NewInMemoryWorker(p.queues[i],
			WithName(name),
			WithLogger(p.logger.Named(name)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit routes job to the worker owning job.Key. When that worker's queue
// is full it waits for room until ctx is done or the pool shuts down.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if job.Run == nil {
		return ErrEmptyJob
	}

	p.mu.RLock()
	stopped := p.stopped
	p.mu.RUnlock()
	if stopped {
		return ErrStopped
	}

	idx := p.shard(job.Key)
	if err := p.queues[idx].EnqueueWait(ctx, job); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return ErrStopped
		}
		return fmt.Errorf("submit %s to worker %d: %w", job.Name, idx, err)
	}
	return nil
}

func (p *Pool) shard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(p.queues)))
}

// Pending returns the number of queued jobs across all workers.
func (p *Pool) Pending() int {
	n := 0
	for _, q := range p.queues {
		n += q.Len()
	}
	return n
}

// Shutdown stops accepting jobs, lets workers drain their queues and waits
// for them up to ctx or the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			wctx, wcancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
			_ = w.Shutdown(wctx)
			wcancel()
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
