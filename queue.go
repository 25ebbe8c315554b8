package incidentdesk

import (
	"context"

	"github.com/incidentdesk/incidentdesk/internal/linkedbuffer"
	"github.com/incidentdesk/incidentdesk/internal/semaphore"
)

const (
	queueInitialSegment = 16
	queueMaxSegment     = 1024
)

// QueueOption customizes a Queue
type QueueOption func(*queueOptions)

type queueOptions struct {
	capacity int
}

// WithCapacity bounds the queue to n items. Put blocks while the queue is full
// and resumes as soon as an item is taken. Values below 1 keep the queue unbounded.
func WithCapacity(n int) QueueOption {
	return func(o *queueOptions) {
		o.capacity = n
	}
}

// Queue is a FIFO hand-off between any number of producer and consumer goroutines.
// Each item put is returned by exactly one take. Items put by the same goroutine
// come out in the order they were put.
type Queue[T any] struct {
	buffer   *linkedbuffer.LinkedBuffer[T]
	hasItems chan struct{}
	slots    *semaphore.Slots
	capacity int
}

// NewQueue creates an unbounded queue unless WithCapacity is given.
func NewQueue[T any](options ...QueueOption) *Queue[T] {
	opts := &queueOptions{}
	for _, option := range options {
		option(opts)
	}

	q := &Queue[T]{
		buffer:   linkedbuffer.NewLinkedBuffer[T](queueInitialSegment, queueMaxSegment),
		hasItems: make(chan struct{}, 1),
	}

	if opts.capacity > 0 {
		q.capacity = opts.capacity
		q.slots = semaphore.New(opts.capacity)
	}

	return q
}

// Put appends an item. On an unbounded queue it never blocks for longer than
// the internal lock is held.
func (q *Queue[T]) Put(item T) {
	// Background is never cancelled, so this cannot fail
	_ = q.PutContext(context.Background(), item)
}

// PutContext appends an item, waiting for room on a bounded queue until ctx ends.
func (q *Queue[T]) PutContext(ctx context.Context, item T) error {
	if q.slots != nil {
		if err := q.slots.Acquire(ctx); err != nil {
			return err
		}
	}

	q.buffer.Write(item)
	q.signal()

	return nil
}

// Take removes and returns the oldest item, waiting for one if the queue is empty.
func (q *Queue[T]) Take() T {
	item, _ := q.TakeContext(context.Background())
	return item
}

// TakeContext is like Take but gives up when ctx ends, returning ctx.Err().
func (q *Queue[T]) TakeContext(ctx context.Context) (T, error) {
	for {
		if item, ok := q.TryTake(); ok {
			return item, nil
		}

		select {
		case <-q.hasItems:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryTake removes and returns the oldest item if there is one.
func (q *Queue[T]) TryTake() (T, bool) {
	item, ok := q.buffer.Pop()
	if !ok {
		return item, false
	}

	if q.slots != nil {
		q.slots.Release()
	}

	// Pass the wake-up on to the next waiting consumer
	if q.buffer.Len() > 0 {
		q.signal()
	}

	return item, true
}

func (q *Queue[T]) signal() {
	select {
	case q.hasItems <- struct{}{}:
	default:
	}
}

// Len returns the number of items waiting to be taken
func (q *Queue[T]) Len() uint64 {
	return q.buffer.Len()
}

// PutCount returns the number of items put since the queue was created
func (q *Queue[T]) PutCount() uint64 {
	return q.buffer.WriteCount()
}

// TakeCount returns the number of items taken since the queue was created
func (q *Queue[T]) TakeCount() uint64 {
	return q.buffer.ReadCount()
}

// Capacity returns the bound set with WithCapacity, or 0 for an unbounded queue
func (q *Queue[T]) Capacity() int {
	return q.capacity
}
