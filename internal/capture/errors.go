package capture

import "errors"

var (
	ErrCorruptFrame = errors.New("corrupt capture frame")
	ErrClosed       = errors.New("recorder closed")
)
