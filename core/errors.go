package core

import "errors"

var (
	// ErrAlert is returned from a barrier wait after the barrier was alerted
	ErrAlert = errors.New("sequence barrier alerted")

	// ErrInsufficientCapacity is returned by TryNext when claiming would wrap onto unconsumed slots
	ErrInsufficientCapacity = errors.New("insufficient capacity in ring buffer")

	// ErrInvalidBufferSize is returned when the buffer size is not a positive power of two
	ErrInvalidBufferSize = errors.New("buffer size must be a positive power of 2")

	// ErrInvalidClaim is returned when claiming fewer than one or more than bufferSize slots
	ErrInvalidClaim = errors.New("claim size must be between 1 and the buffer size")

	// ErrUnknownWaitStrategy is returned by ParseWaitStrategy for unrecognised names
	ErrUnknownWaitStrategy = errors.New("unknown wait strategy")
)
