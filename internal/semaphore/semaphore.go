package semaphore

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

// ErrReleaseUnacquired is returned when releasing a slot that was never acquired.
var ErrReleaseUnacquired = errors.New("semaphore: release without matching acquire")

// Slots is a counting semaphore with FIFO fairness: waiters are served in the
// order they started waiting.
type Slots struct {
	mutex    sync.Mutex
	waiters  list.List
	size     int
	acquired int
}

// New creates a semaphore with the given number of slots.
func New(size int) *Slots {
	if size < 1 {
		panic("semaphore: size must be greater than 0")
	}
	return &Slots{
		size: size,
	}
}

// Acquire blocks until a slot is free or the context ends.
func (s *Slots) Acquire(ctx context.Context) error {
	done := ctx.Done()

	// Prioritize context cancellation
	select {
	case <-done:
		return ctx.Err()
	default:
	}

	s.mutex.Lock()
	if s.waiters.Len() == 0 && s.acquired < s.size {
		s.acquired++
		s.mutex.Unlock()
		return nil
	}

	ready := make(chan struct{})
	elem := s.waiters.PushBack(ready)
	s.mutex.Unlock()

	select {
	case <-ready:
		return nil
	case <-done:
		s.mutex.Lock()
		select {
		case <-ready:
			// Granted while we were giving up, hand the slot back
			s.mutex.Unlock()
			s.Release()
		default:
			isFront := s.waiters.Front() == elem
			s.waiters.Remove(elem)
			if isFront && s.acquired < s.size {
				s.wakeWaiters()
			}
			s.mutex.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (s *Slots) TryAcquire() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.waiters.Len() == 0 && s.acquired < s.size {
		s.acquired++
		return true
	}

	return false
}

// Release frees a slot, handing it to the oldest waiter if there is one.
func (s *Slots) Release() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.acquired == 0 {
		return ErrReleaseUnacquired
	}

	s.acquired--
	s.wakeWaiters()

	return nil
}

// wakeWaiters must be called with the mutex held.
func (s *Slots) wakeWaiters() {
	for s.acquired < s.size {
		front := s.waiters.Front()
		if front == nil {
			return
		}

		s.acquired++
		s.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}

// Size returns the total number of slots
func (s *Slots) Size() int {
	return s.size
}

// Acquired returns the number of slots in use
func (s *Slots) Acquired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.acquired
}

// Available returns the number of free slots
func (s *Slots) Available() int {
	return s.size - s.Acquired()
}
