package linkedbuffer

import (
	"sync"
	"sync/atomic"
)

// LinkedBuffer is an unbounded FIFO buffer that can be written to and read from
// by many goroutines. Values are stored in a chain of segments that grow
// geometrically up to maxSegment elements each.
type LinkedBuffer[T any] struct {
	// head is the segment currently being read
	head *segment[T]

	// tail is the segment currently being written
	tail *segment[T]

	maxSegment int
	writeCount atomic.Uint64
	readCount  atomic.Uint64
	mutex      sync.Mutex
}

// NewLinkedBuffer creates a buffer whose first segment holds initialCapacity values.
func NewLinkedBuffer[T any](initialCapacity, maxSegment int) *LinkedBuffer[T] {
	if maxSegment < initialCapacity {
		maxSegment = initialCapacity
	}

	first := newSegment[T](initialCapacity)

	return &LinkedBuffer[T]{
		head:       first,
		tail:       first,
		maxSegment: maxSegment,
	}
}

// Write appends values to the buffer, preserving their order.
func (b *LinkedBuffer[T]) Write(values ...T) {
	if len(values) == 0 {
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	written := 0
	for written < len(values) {
		n, err := b.tail.write(values[written:])
		if err == ErrEOF {
			b.grow()
			continue
		}
		written += n
	}

	b.writeCount.Add(uint64(len(values)))
}

// grow chains a new segment after the tail. Must be called with the mutex held.
func (b *LinkedBuffer[T]) grow() {
	size := b.tail.cap()
	if size < 1024 {
		size *= 2
	} else {
		size += size / 2
	}
	if size > b.maxSegment {
		size = b.maxSegment
	}

	b.tail.next = newSegment[T](size)
	b.tail = b.tail.next
}

// Read moves up to len(values) of the oldest values into values and returns how many were read.
// It returns 0 when the buffer is empty.
func (b *LinkedBuffer[T]) Read(values []T) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for {
		n, err := b.head.read(values)

		if err == ErrEOF {
			if b.head.next == nil {
				return 0
			}
			// Drop the exhausted segment
			b.head = b.head.next
			continue
		}

		if n > 0 {
			b.readCount.Add(uint64(n))
		}

		return n
	}
}

// Pop removes and returns the oldest value, if any.
func (b *LinkedBuffer[T]) Pop() (value T, ok bool) {
	var one [1]T
	if b.Read(one[:]) == 0 {
		return
	}
	return one[0], true
}

// WriteCount returns the number of values written since the buffer was created
func (b *LinkedBuffer[T]) WriteCount() uint64 {
	return b.writeCount.Load()
}

// ReadCount returns the number of values read since the buffer was created
func (b *LinkedBuffer[T]) ReadCount() uint64 {
	return b.readCount.Load()
}

// Len returns the number of values written but not yet read
func (b *LinkedBuffer[T]) Len() uint64 {
	written := b.writeCount.Load()
	read := b.readCount.Load()

	if written < read {
		return 0
	}

	return written - read
}
