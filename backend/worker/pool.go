package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/dustin/go-humanize"
)

var ErrPoolStopped = errors.New("save pool is shutting down")

// Library is where finished saves land.
type Library interface {
	Create(ctx context.Context, data []byte) (models.Asset, error)
}

// Result is the outcome of one save. Exactly one of Asset and Err is meaningful.
type Result struct {
	Asset    models.Asset
	Err      error
	Duration time.Duration
}

func (r Result) Success() bool {
	return r.Err == nil
}

// Task delivers the result of an asynchronous save.
type Task struct {
	done   chan struct{}
	result Result
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(r Result) {
	t.result = r
	close(t.done)
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the save finishes or ctx ends. Waiting again after the
// task finished returns the same result.
func (t *Task) Wait(ctx context.Context) Result {
	select {
	case <-t.done:
		return t.result
	case <-ctx.Done():
		return Result{Err: fmt.Errorf("waiting for save: %w", ctx.Err())}
	}
}

type job struct {
	data []byte
	task *Task
}

type Pool struct {
	workers int
	library Library
	jobs    chan job
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	// Statistics
	activeJobs    int64
	completedJobs int64
	failedJobs    int64
}

func NewPool(workers int, library Library) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		library: library,
		jobs:    make(chan job, 64),
	}
}

// Start spawns worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	slog.Info("Save pool started", "workers", p.workers, "queue_capacity", cap(p.jobs))
}

// Stop stops accepting saves and waits for queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Info("Save pool stopped")
}

// Submit queues data for writing to the library. The returned task always
// completes; if the pool is stopped or ctx ends before the save is queued
// it completes with an error straight away.
func (p *Pool) Submit(ctx context.Context, data []byte) *Task {
	task := newTask()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		task.finish(Result{Err: ErrPoolStopped})
		return task
	}

	select {
	case p.jobs <- job{data: data, task: task}:
		slog.Debug("Save queued", "size", humanize.Bytes(uint64(len(data))), "queue_size", len(p.jobs))
	case <-ctx.Done():
		task.finish(Result{Err: fmt.Errorf("queueing save: %w", ctx.Err())})
	}
	return task
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()
	slog.Debug("Save worker started", "worker", workerID)

	for j := range p.jobs {
		atomic.AddInt64(&p.activeJobs, 1)
		j.task.finish(p.process(j))
		atomic.AddInt64(&p.activeJobs, -1)
	}

	slog.Debug("Save worker stopped", "worker", workerID)
}

func (p *Pool) process(j job) Result {
	startTime := time.Now()

	asset, err := p.library.Create(context.Background(), j.data)
	if err != nil {
		atomic.AddInt64(&p.failedJobs, 1)
		return Result{Err: err, Duration: time.Since(startTime)}
	}

	atomic.AddInt64(&p.completedJobs, 1)
	return Result{Asset: asset, Duration: time.Since(startTime)}
}

// ============ Statistics ============

type Stats struct {
	Workers       int   `json:"workers"`
	QueueSize     int   `json:"queue_size"`
	QueueCapacity int   `json:"queue_capacity"`
	ActiveJobs    int64 `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers:       p.workers,
		QueueSize:     len(p.jobs),
		QueueCapacity: cap(p.jobs),
		ActiveJobs:    atomic.LoadInt64(&p.activeJobs),
		CompletedJobs: atomic.LoadInt64(&p.completedJobs),
		FailedJobs:    atomic.LoadInt64(&p.failedJobs),
	}
}
