package toolbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolbox. Use errors.Is to check.
var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrToolNotFound  = errors.New("tool not found")
	ErrValidation    = errors.New("validation failed")
	ErrTimeout       = errors.New("tool execution timeout")
)

// ClientError is an error that should be sent back to the LLM for self-correction
// (e.g. invalid JSON, schema validation failure, bad enum value).
// Do not expose stack traces or internal details to the LLM.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error // wrapped sentinel for errors.Is/errors.As
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure: the callable returned an error,
// panicked, or its output could not be marshaled. The LLM should not see the
// underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
// Used by Extractor.ParseAndValidate and the dispatch path so parse errors are consistent.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}

// wrapCallableError passes through ClientError; wraps other errors as SystemError.
func wrapCallableError(err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) {
		return err
	}
	return &SystemError{Err: err}
}

// panicError wraps a recovered panic value for SystemError; used by Registry and WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
