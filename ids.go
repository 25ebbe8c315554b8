package incidentdesk

import "sync/atomic"

// IDAllocator hands out incident ids. Ids start at 1 and every call to Next
// returns the next integer, no matter how many goroutines call it.
// The zero value is ready to use.
type IDAllocator struct {
	last atomic.Uint64
}

// NewIDAllocator creates an allocator whose first id is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() uint64 {
	return a.last.Add(1)
}

// Peek returns the id the next call to Next will return, without issuing it.
func (a *IDAllocator) Peek() uint64 {
	return a.last.Load() + 1
}

// Issued returns how many ids have been handed out.
func (a *IDAllocator) Issued() uint64 {
	return a.last.Load()
}
