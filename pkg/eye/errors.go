package eye

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrSessionFailed means a native call on the session has failed before,
	// the session handle is no longer valid.
	ErrSessionFailed = errors.New("eye: session failed")
	// ErrSessionClosed means the camera was closed.
	ErrSessionClosed = errors.New("eye: session closed")
	// ErrNotSupported means the library doesn't export an optional entry point.
	ErrNotSupported = errors.New("eye: not supported by the native library")

	errNullPointer  = errors.New("null pointer")
	errNoTerminator = errors.New("missing null terminator")
	errNotUTF8      = errors.New("invalid UTF-8")
	errShortRead    = errors.New("short read")
)

// CallError is a non-zero status of a native call.
// Message is the native error message as is.
type CallError struct {
	Call    string
	Status  Status
	Message string
	// Err is set when the error message itself couldn't be decoded.
	Err error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("eye: %s failed (%d): %v", e.Call, e.Status, e.Err)
	}
	return fmt.Sprintf("eye: %s failed (%d): %s", e.Call, e.Status, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

// DecodeError is a malformed value that came from the native side.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("eye: couldn't decode %s: %v", e.What, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// LifecycleError is an operation on a session that has already
// failed or was closed. Those are never passed to the native side.
type LifecycleError struct {
	Op string
	// State is either ErrSessionFailed or ErrSessionClosed.
	State error
	// Cause is the error that has terminated the session (if any).
	Cause error
}

func (e *LifecycleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.State, e.Op, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.State, e.Op)
}

func (e *LifecycleError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.State, e.Cause}
	}
	return []error{e.State}
}

// DecodeCString decodes a null-terminated UTF-8 string.
// Everything after the first zero byte is ignored.
func DecodeCString(b []byte) (string, error) {
	s, err := cBytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func cBytes(b []byte) ([]byte, error) {
	for i, c := range b {
		if c == 0 {
			if !utf8.Valid(b[:i]) {
				return nil, errNotUTF8
			}
			return b[:i], nil
		}
	}
	return nil, errNoTerminator
}
