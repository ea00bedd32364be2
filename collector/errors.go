package collector

import "errors"

var (
	// ErrChannelUnavailable covers every way an evaluation can fail outright:
	// the buffer is not installed yet, the expression threw, or the context
	// went away.
	ErrChannelUnavailable = errors.New("evaluation channel unavailable")
	ErrUnknownQuery       = errors.New("unknown query")
	ErrMalformedResult    = errors.New("malformed evaluation result")
)
