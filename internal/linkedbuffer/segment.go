package linkedbuffer

import "errors"

// ErrEOF is returned by a segment that can no longer be written to or read from.
var ErrEOF = errors.New("EOF")

// segment is a fixed-size slice of values, chained to the next segment once full.
// It is not thread-safe, LinkedBuffer guards it with its mutex.
type segment[T any] struct {
	data      []T
	readIndex int
	writeIdx  int
	next      *segment[T]
}

func newSegment[T any](capacity int) *segment[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &segment[T]{
		data: make([]T, capacity),
	}
}

func (s *segment[T]) cap() int {
	return len(s.data)
}

// write copies as many values as fit and returns how many were copied.
// A full segment returns ErrEOF.
func (s *segment[T]) write(values []T) (int, error) {
	free := s.cap() - s.writeIdx
	if free == 0 {
		return 0, ErrEOF
	}

	n := copy(s.data[s.writeIdx:], values)
	s.writeIdx += n

	return n, nil
}

// read moves up to len(values) unread elements into values.
// A segment that has been filled and fully read returns ErrEOF.
func (s *segment[T]) read(values []T) (int, error) {
	if s.readIndex == s.cap() {
		return 0, ErrEOF
	}

	n := copy(values, s.data[s.readIndex:s.writeIdx])

	// Release references so read values can be collected
	var zero T
	for i := s.readIndex; i < s.readIndex+n; i++ {
		s.data[i] = zero
	}
	s.readIndex += n

	return n, nil
}
