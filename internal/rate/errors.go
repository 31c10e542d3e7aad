package rate

import "errors"

// ErrRateLimited is returned when a counter exceeds its budget for the
// current window.
var ErrRateLimited = errors.New("rate limited")

// ErrUnavailable is returned when the counter backend cannot be reached
// within the configured bound. Callers must treat it as an internal failure,
// never as permission to proceed.
var ErrUnavailable = errors.New("rate limiter backend unavailable")
