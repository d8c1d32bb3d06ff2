package share

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode reports a token that is malformed, not decodable, or missing a
	// recognized kind.
	ErrDecode = errors.New("share: invalid token")

	// ErrPayloadTooLarge reports a share link over the transport-safe length.
	ErrPayloadTooLarge = errors.New("share: link too large")

	// ErrDispatchAborted reports that the user cancelled the share interaction.
	// Callers treat it as a silent success.
	ErrDispatchAborted = errors.New("share: dispatch aborted")

	// ErrDispatchFailed reports a transport failure other than cancellation.
	ErrDispatchFailed = errors.New("share: dispatch failed")

	// ErrInvalidText reports a string field that is not valid UTF-8 and would
	// be silently altered by encoding.
	ErrInvalidText = errors.New("share: text is not valid UTF-8")

	// ErrInvalidRecord reports a record without an ID, or with missing or
	// repeated exercise IDs, which a receiver would reject.
	ErrInvalidRecord = errors.New("share: invalid record")
)

// DecodeError describes why a token was rejected.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("share: invalid token: %s: %v", e.Reason, e.Err)
	}
	return "share: invalid token: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(reason string, err error) error {
	return &DecodeError{Reason: reason, Err: err}
}

// PayloadTooLargeError carries the measured link length and the bound.
type PayloadTooLargeError struct {
	Length int
	Limit  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("share: link is %d characters, limit is %d", e.Length, e.Limit)
}

// Is matches ErrPayloadTooLarge.
func (e *PayloadTooLargeError) Is(target error) bool { return target == ErrPayloadTooLarge }

// DispatchError wraps a transport failure. It matches ErrDispatchFailed.
type DispatchError struct {
	Method string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("share: %s dispatch failed: %v", e.Method, e.Err)
}

// Unwrap returns the transport error.
func (e *DispatchError) Unwrap() error { return e.Err }

// Is matches ErrDispatchFailed.
func (e *DispatchError) Is(target error) bool { return target == ErrDispatchFailed }
