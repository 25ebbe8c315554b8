package incidentdesk

import (
	"context"
	"sync/atomic"
)

// worker runs firstTask and then keeps pulling tasks until the pool context is cancelled.
// A running task is never interrupted, cancellation is only observed between tasks.
func worker(ctx context.Context, firstTask func(), tasks <-chan func(), idleWorkerCount *atomic.Int32, exitHandler func(), taskExecutor func(func())) {

	defer exitHandler()

	if firstTask != nil {
		taskExecutor(firstTask)
	}

	idleWorkerCount.Add(1)
	defer idleWorkerCount.Add(-1)

	for {
		// Prioritize context.Done over pending tasks
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case task := <-tasks:
			idleWorkerCount.Add(-1)
			taskExecutor(task)
			idleWorkerCount.Add(1)
		}
	}
}
