// Package worker runs analysis jobs pulled off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/pkg/logger"
	"github.com/okian/strokeheat/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Result is the outcome of analyzing one job.
type Result struct {
	Job    model.Job
	Script *model.Script
	Stats  model.Stats
}

// Analyzer loads and analyzes the script behind a job.
type Analyzer interface {
	Analyze(ctx context.Context, j model.Job) (Result, error)
}

// Sink persists or emits an analyzed result.
type Sink interface {
	Store(ctx context.Context, r Result) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// ErrorHandler is told about every job that failed.
type ErrorHandler func(ctx context.Context, j model.Job, err error)

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	sink     Sink
	name     string
	onError  ErrorHandler
	onDone   func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, analyzer Analyzer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: analyzer,
		sink:     sink,
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

// Run consumes jobs until the queue channel closes, ctx is done, or the
// worker is shut down.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// Releases the dequeue goroutine when the worker returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "job failed", logger.String("job_id", j.ID), logger.String("name", j.Name), logger.Error(err))
				if w.onError != nil {
					w.onError(ctx, j, err)
				}
			}
		}
	}
}

// Shutdown stops the worker after its current job.
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

func (w *InMemoryWorker) process(ctx context.Context, j model.Job) error { //nolint:gocritic // Job arrives by value from the channel
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.analyzer.Analyze(ctx, j)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analyze")
		return fmt.Errorf("analyze %s: %w", j.Name, err)
	}
	if err := w.sink.Store(ctx, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store")
		return fmt.Errorf("store %s: %w", j.Name, err)
	}
	if w.onDone != nil {
		w.onDone()
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once

	processed         atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// runtime.NumCPU(). Options apply to every worker.
func NewPool(workerCount int, q Queue, analyzer Analyzer, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		workerOpts = append(workerOpts, withOnDone(p.recordProcessed))
		p.workers[i] = NewInMemoryWorker(q, analyzer, sink, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs completed successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			current := p.processed.Load()
			if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(current-last) / elapsed)
			}
			last = current
			p.lastProcessedTime = now
		}
	}
}

func (p *Pool) recordProcessed() {
	p.processed.Add(1)
}

// Wait blocks until every worker has returned. Workers return once the
// queue is closed and drained, so callers close the queue first.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	p.stopUpdater()
	return nil
}

// Shutdown closes the queue when it supports closing, then stops all
// workers after their current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopUpdater()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}

func (p *Pool) stopUpdater() {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
}
