package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested snapshot or resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDecodeFailed indicates a snapshot file could not be decoded.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodeRateLimited indicates the client sent too many requests.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Layout errors
const (
	// ErrCodeLayoutFailed indicates the layout pass could not complete.
	ErrCodeLayoutFailed ErrorCode = "LAYOUT_FAILED"
	// ErrCodeStaleSnapshot indicates a result was computed for a superseded snapshot.
	ErrCodeStaleSnapshot ErrorCode = "STALE_SNAPSHOT"
	// ErrCodeSurfaceNotReady indicates the rendering surface cannot accept a layout yet.
	ErrCodeSurfaceNotReady ErrorCode = "SURFACE_NOT_READY"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDecodeFailed:    true,
	ErrCodeSurfaceNotReady: true,
	ErrCodeRateLimited:     true,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
