package internal

import "errors"

// Sentinel errors shared across layers. Lower layers wrap these with %w so
// handlers can map them to status codes with errors.Is.
var (
	// ErrInvalidRange marks bad caller input (reversed range, days <= 0).
	ErrInvalidRange = errors.New("invalid time range")

	// ErrStoreUnavailable marks a failed read or write against the metric store.
	ErrStoreUnavailable = errors.New("metric store unavailable")

	// ErrEmptyInput means there was no data to summarize for the range.
	ErrEmptyInput = errors.New("no data to summarize")

	// ErrModelUnavailable marks a failed external model call.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrTimeout marks an exceeded model-call or insight-wait deadline.
	ErrTimeout = errors.New("timed out")

	// ErrCacheCorruption marks an insight cache entry in an impossible state.
	// The entry is dropped and regenerated; the service keeps running.
	ErrCacheCorruption = errors.New("insight cache entry corrupted")
)

// AppError is the wire shape of an error in API responses.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
