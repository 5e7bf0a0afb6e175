package worker

import "errors"

var (
	ErrPoolFull    = errors.New("worker pool queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)
