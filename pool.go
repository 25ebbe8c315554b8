package incidentdesk

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/incidentdesk/incidentdesk/internal/stopper"
)

var (
	// ErrSubmitOnStoppedPool is returned when submitting a task to a pool that has been stopped
	ErrSubmitOnStoppedPool = errors.New("worker pool has been stopped and is no longer accepting tasks")
)

// defaultPanicHandler is the default panic handler
func defaultPanicHandler(panic interface{}) {
	fmt.Printf("Worker exits from a panic: %v\nStack trace: %s\n", panic, string(debug.Stack()))
}

// Option represents an option that can be passed when instantiating a worker pool to customize it
type Option func(*WorkerPool)

// PanicHandler allows to change the panic handler function of a worker pool
func PanicHandler(panicHandler func(interface{})) Option {
	return func(pool *WorkerPool) {
		pool.panicHandler = panicHandler
	}
}

// Context configures a parent context on a worker pool. Cancelling it stops the pool.
func Context(parentCtx context.Context) Option {
	return func(pool *WorkerPool) {
		pool.context, pool.contextCancel = context.WithCancel(parentCtx)
	}
}

// WorkerPool runs submitted tasks on at most maxWorkers goroutines.
// Workers are started lazily, one per submitted task, until the limit is reached.
// A task keeps its worker for as long as it runs, so long-running tasks
// (such as consumer loops) hold a slot until they return.
type WorkerPool struct {
	// Configurable settings
	maxWorkers    int
	maxCapacity   int
	panicHandler  func(interface{})
	context       context.Context
	contextCancel context.CancelFunc
	// Atomic counters
	workerCount         atomic.Int32
	idleWorkerCount     atomic.Int32
	waitingTaskCount    atomic.Uint64
	submittedTaskCount  atomic.Uint64
	successfulTaskCount atomic.Uint64
	failedTaskCount     atomic.Uint64
	// Private properties
	tasks            chan func()
	pending          *stopper.Stopper
	workersWaitGroup sync.WaitGroup
	mutex            sync.Mutex
}

// New creates a worker pool that runs at most maxWorkers tasks at the same time.
// The maxCapacity parameter determines how many tasks can wait for a free worker
// before Submit blocks.
func New(maxWorkers, maxCapacity int, options ...Option) *WorkerPool {

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		maxCapacity:  maxCapacity,
		panicHandler: defaultPanicHandler,
		pending:      stopper.New(),
	}

	for _, opt := range options {
		opt(pool)
	}

	// Make sure options are consistent
	if pool.maxWorkers <= 0 {
		pool.maxWorkers = 1
	}
	if pool.maxCapacity < 0 {
		pool.maxCapacity = 0
	}
	if pool.panicHandler == nil {
		pool.panicHandler = defaultPanicHandler
	}

	if pool.context == nil {
		Context(context.Background())(pool)
	}

	pool.tasks = make(chan func(), pool.maxCapacity)

	// Stop accepting tasks when the parent context is cancelled
	go func() {
		<-pool.context.Done()
		pool.pending.Stop()
		pool.discardQueuedTasks()
	}()

	return pool
}

// RunningWorkers returns the current number of running workers
func (p *WorkerPool) RunningWorkers() int {
	return int(p.workerCount.Load())
}

// IdleWorkers returns the current number of idle workers
func (p *WorkerPool) IdleWorkers() int {
	return int(p.idleWorkerCount.Load())
}

// MaxWorkers returns the maximum number of worker goroutines
func (p *WorkerPool) MaxWorkers() int {
	return p.maxWorkers
}

// MaxCapacity returns the maximum number of tasks that can be waiting for a worker
func (p *WorkerPool) MaxCapacity() int {
	return p.maxCapacity
}

// SubmittedTasks returns the total number of tasks submitted since the pool was created
func (p *WorkerPool) SubmittedTasks() uint64 {
	return p.submittedTaskCount.Load()
}

// WaitingTasks returns the current number of tasks waiting for a worker
func (p *WorkerPool) WaitingTasks() uint64 {
	return p.waitingTaskCount.Load()
}

// SuccessfulTasks returns the total number of tasks that returned normally
func (p *WorkerPool) SuccessfulTasks() uint64 {
	return p.successfulTaskCount.Load()
}

// FailedTasks returns the total number of tasks that completed with a panic
func (p *WorkerPool) FailedTasks() uint64 {
	return p.failedTaskCount.Load()
}

// CompletedTasks returns the total number of tasks that have completed either successfully
// or with a panic
func (p *WorkerPool) CompletedTasks() uint64 {
	return p.SuccessfulTasks() + p.FailedTasks()
}

// Stopped returns true if the pool has been stopped and is no longer accepting tasks.
func (p *WorkerPool) Stopped() bool {
	return p.pending.Stopping()
}

// Context returns the pool context. It is cancelled when the pool stops.
func (p *WorkerPool) Context() context.Context {
	return p.context
}

// Submit sends a task to this worker pool for execution. If all workers are busy and the
// queue is full, it waits until the task can be handed over.
// It returns ErrSubmitOnStoppedPool if the pool is stopped before that happens.
func (p *WorkerPool) Submit(task func()) error {
	if _, err := p.submit(task, true); err != nil {
		return err
	}
	return nil
}

// TrySubmit attempts to send a task to this worker pool for execution without waiting.
// It returns true if the task was accepted and false otherwise.
func (p *WorkerPool) TrySubmit(task func()) bool {
	submitted, _ := p.submit(task, false)
	return submitted
}

func (p *WorkerPool) submit(task func(), mustSubmit bool) (submitted bool, err error) {
	if task == nil {
		return
	}

	if !p.pending.Add() {
		err = ErrSubmitOnStoppedPool
		return
	}

	p.submittedTaskCount.Add(1)
	p.waitingTaskCount.Add(1)

	defer func() {
		if !submitted {
			// Task never reached a worker, roll back counters
			p.submittedTaskCount.Add(^uint64(0))
			p.waitingTaskCount.Add(^uint64(0))
			p.pending.Done()
		}
	}()

	// Start a worker as long as we haven't reached the limit
	if submitted = p.maybeStartWorker(task); submitted {
		return
	}

	if !mustSubmit {
		select {
		case p.tasks <- task:
			submitted = true
		default:
		}
		return
	}

	select {
	case p.tasks <- task:
		submitted = true
	case <-p.context.Done():
		err = ErrSubmitOnStoppedPool
	}
	return
}

// Stop causes this pool to stop accepting new tasks and signals idle workers to exit.
// It returns right away. Tasks being executed keep running until they return on their own,
// tasks waiting in the queue are discarded.
func (p *WorkerPool) Stop() {
	p.pending.Stop()
	p.contextCancel()
	p.discardQueuedTasks()
}

// discardQueuedTasks drops tasks that were accepted but never picked up by a worker
func (p *WorkerPool) discardQueuedTasks() {
	for {
		select {
		case <-p.tasks:
			p.waitingTaskCount.Add(^uint64(0))
			p.pending.Done()
		default:
			return
		}
	}
}

// StopAndWait causes this pool to stop accepting new tasks and then waits for every
// accepted task to complete before returning.
func (p *WorkerPool) StopAndWait() {
	p.pending.Stop()
	p.pending.Wait()

	p.contextCancel()
	p.workersWaitGroup.Wait()
}

// StopAndWaitFor stops this pool and waits until either all accepted tasks are completed
// or the given deadline is reached, whichever comes first.
// It returns true if every task completed in time.
func (p *WorkerPool) StopAndWaitFor(deadline time.Duration) bool {
	p.pending.Stop()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	defer p.contextCancel()

	select {
	case <-p.pending.Stopped():
		return true
	case <-timer.C:
		return false
	}
}

// maybeStartWorker starts a worker goroutine that runs firstTask, unless the pool has
// reached its worker limit or there is an idle worker that can pick the task up.
func (p *WorkerPool) maybeStartWorker(firstTask func()) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	running := p.RunningWorkers()
	if running >= p.maxWorkers {
		return false
	}
	if running > 0 && p.IdleWorkers() > 0 {
		return false
	}

	p.workerCount.Add(1)
	p.workersWaitGroup.Add(1)

	go worker(p.context, firstTask, p.tasks, &p.idleWorkerCount, p.decrementWorkerCount, p.executeTask)

	return true
}

// executeTask runs the given task and updates task-related counters
func (p *WorkerPool) executeTask(task func()) {

	defer func() {
		if panic := recover(); panic != nil {
			p.failedTaskCount.Add(1)

			p.panicHandler(panic)
		}
		p.pending.Done()
	}()

	p.waitingTaskCount.Add(^uint64(0))

	task()

	p.successfulTaskCount.Add(1)
}

func (p *WorkerPool) decrementWorkerCount() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.workerCount.Add(-1)
	p.workersWaitGroup.Done()
}

// Group creates a new task group
func (p *WorkerPool) Group() *TaskGroup {
	return &TaskGroup{
		pool: p,
	}
}

// TaskGroup represents a group of related tasks
type TaskGroup struct {
	pool      *WorkerPool
	waitGroup sync.WaitGroup
}

// Submit adds a task to this group and sends it to the worker pool to be executed
func (g *TaskGroup) Submit(task func()) error {
	g.waitGroup.Add(1)
	err := g.pool.Submit(func() {
		defer g.waitGroup.Done()
		task()
	})
	if err != nil {
		g.waitGroup.Done()
	}
	return err
}

// Wait waits until all the tasks in this group have completed
func (g *TaskGroup) Wait() {
	g.waitGroup.Wait()
}
