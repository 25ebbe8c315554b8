package stopper

import (
	"sync"
)

func New() *Stopper {
	return &Stopper{
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Stopper tracks in-flight jobs like a WaitGroup, but refuses new jobs once
// Stop has been called, so Add never races with a pending Wait.
type Stopper struct {
	mu      sync.Mutex
	running int

	stoppingOnce sync.Once
	stoppedOnce  sync.Once

	stopping chan struct{}
	stopped  chan struct{}
}

// Add registers a new job. It returns false, registering nothing, once Stop was called.
func (s *Stopper) Add() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopping:
		return false
	default:
	}

	s.running++
	return true
}

// Done marks a job registered with Add as finished.
func (s *Stopper) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running <= 0 {
		return
	}
	s.running--

	s.closeIfIdle()
}

// closeIfIdle must be called with the mutex held.
func (s *Stopper) closeIfIdle() {
	if s.running > 0 {
		return
	}

	select {
	case <-s.stopping:
		s.stoppedOnce.Do(func() { close(s.stopped) })
	default:
	}
}

// Stop refuses further jobs. Jobs already added keep running.
func (s *Stopper) Stop() {
	s.stoppingOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		close(s.stopping)
		s.closeIfIdle()
	})
}

// Stopping reports whether Stop was called
func (s *Stopper) Stopping() bool {
	select {
	case <-s.stopping:
		return true
	default:
		return false
	}
}

// Running returns the number of jobs added and not yet done
func (s *Stopper) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stopped is closed once Stop was called and every added job is done.
func (s *Stopper) Stopped() <-chan struct{} {
	return s.stopped
}

// Wait blocks until Stopped is closed.
func (s *Stopper) Wait() {
	<-s.stopped
}
