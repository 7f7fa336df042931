package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigMissing    ErrorCode = "CONFIG_MISSING"
	ErrCodeAlgorithmUnknown ErrorCode = "ALGORITHM_UNKNOWN"

	// Input errors
	ErrCodeInputUnreadable ErrorCode = "INPUT_UNREADABLE"
	ErrCodeInputCorrupted  ErrorCode = "INPUT_CORRUPTED"

	// Output errors
	ErrCodeOutputFailed ErrorCode = "OUTPUT_FAILED"

	// Verification errors
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"

	// Cancellation
	ErrCodeInterrupted ErrorCode = "INTERRUPTED"
)

// HashSplitError is the error type the command line host reports
type HashSplitError struct {
	Code     ErrorCode
	Message  string
	Err      error
	ExitCode int
}

// Error implements the error interface
func (e *HashSplitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *HashSplitError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches the target
func (e *HashSplitError) Is(target error) bool {
	t, ok := target.(*HashSplitError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new error with the given code
func NewError(code ErrorCode, message string) *HashSplitError {
	return &HashSplitError{
		Code:     code,
		Message:  message,
		ExitCode: getExitCode(code),
	}
}

// WrapError wraps an existing error
func WrapError(code ErrorCode, message string, err error) *HashSplitError {
	return &HashSplitError{
		Code:     code,
		Message:  message,
		Err:      err,
		ExitCode: getExitCode(code),
	}
}

// getExitCode maps codes onto sysexits(3) values
func getExitCode(code ErrorCode) int {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeAlgorithmUnknown:
		return 64 // EX_USAGE
	case ErrCodeInputCorrupted:
		return 65 // EX_DATAERR
	case ErrCodeInputUnreadable:
		return 66 // EX_NOINPUT
	case ErrCodeOutputFailed:
		return 74 // EX_IOERR
	case ErrCodeConfigMissing:
		return 78 // EX_CONFIG
	case ErrCodeVerificationFailed:
		return 2
	case ErrCodeInterrupted:
		return 130 // 128 + SIGINT
	default:
		return 1
	}
}

// Common error constructors

func NewConfigInvalidError(err error) *HashSplitError {
	return WrapError(ErrCodeConfigInvalid, "invalid configuration", err)
}

func NewConfigMissingError(path string, err error) *HashSplitError {
	return WrapError(ErrCodeConfigMissing, fmt.Sprintf("cannot load config %s", path), err)
}

func NewAlgorithmUnknownError(err error) *HashSplitError {
	return WrapError(ErrCodeAlgorithmUnknown, "unsupported checksum algorithm", err)
}

func NewInputUnreadableError(name string, err error) *HashSplitError {
	return WrapError(ErrCodeInputUnreadable, fmt.Sprintf("cannot read %s", name), err)
}

func NewInputCorruptedError(name string, err error) *HashSplitError {
	return WrapError(ErrCodeInputCorrupted, fmt.Sprintf("cannot decode %s", name), err)
}

func NewOutputFailedError(err error) *HashSplitError {
	return WrapError(ErrCodeOutputFailed, "writing output failed", err)
}

func NewInterruptedError(err error) *HashSplitError {
	return WrapError(ErrCodeInterrupted, "interrupted", err)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var hsErr *HashSplitError
	if errors.As(err, &hsErr) {
		return hsErr.Code
	}
	return ""
}

// GetExitCode returns the process exit status for err; 0 for nil
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var hsErr *HashSplitError
	if errors.As(err, &hsErr) {
		return hsErr.ExitCode
	}
	return 1
}
