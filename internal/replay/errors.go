package replay

import "errors"

var (
	ErrInvalidRange    = errors.New("invalid sequence range")
	ErrWindowTooLarge  = errors.New("requested range exceeds replay window")
	ErrUnavailable     = errors.New("requested range is no longer available")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrProtocol        = errors.New("replay protocol violation")
	ErrIncompleteRange = errors.New("replay ended before the range was covered")
)
