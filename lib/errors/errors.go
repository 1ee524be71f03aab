// Package errors provides the error taxonomy for sloris.
//
// Errors fall into three groups:
//   - Fatal configuration and usage errors, reported once before the engine
//     starts and mapped to a process exit status by the command line.
//   - Per-connection errors (dial, drip, probe), which are folded into pool
//     statistics and never surface as process-level errors.
//   - Best-effort cleanup errors, which are logged and swallowed.
package errors

import (
	"errors"
	"fmt"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// Error codes for categorizing errors.
const (
	CodeInternal      = 1 // Unexpected failure
	CodeUsage         = 2 // Bad command line (missing target, unknown option)
	CodeConfiguration = 3 // Invalid configuration value or file
	CodeResolve       = 4 // Target address could not be resolved
	CodeConnection    = 5 // Per-connection I/O failure
)

// Sentinel errors. Use errors.Is() to check for these conditions.
var (
	// ErrUsage indicates the command line could not be understood.
	ErrUsage = errors.New("usage error")

	// ErrConfiguration indicates a configuration error.
	ErrConfiguration = errors.New("configuration error")

	// ErrResolve indicates the target host could not be resolved.
	ErrResolve = errors.New("address resolution failed")

	// ErrConnection indicates a connection error.
	ErrConnection = errors.New("connection error")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")

	// ErrClosed indicates a resource is closed.
	ErrClosed = errors.New("closed")
)

// Transport-specific errors
var (
	// ErrShortWrite indicates a drip or request line was only partly written.
	ErrShortWrite = fmt.Errorf("transport: short write: %w", ErrConnection)

	// ErrPeerClosed indicates the peer closed its side of the connection.
	ErrPeerClosed = fmt.Errorf("transport: peer closed: %w", ErrConnection)
)

// Pool errors
var (
	// ErrPoolClosed is returned when ticking a closed engine.
	ErrPoolClosed = fmt.Errorf("pool: %w", ErrClosed)
)

// Error is a structured error with a code and a user-facing message.
type Error struct {
	// Code is the error code for categorization
	Code int `json:"code"`
	// Message is the user-facing error message
	Message string `json:"message"`
	// Err is the underlying error
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching this error's code.
func (e *Error) Is(target error) bool {
	s := sentinelFromCode(e.Code)
	return s != nil && s == target
}

// New creates a new structured error with the given code and message.
func New(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code int, message string, err error) *Error {
	if err != nil {
		log.WithField("code", code).WithError(err).Debug("wrapping error")
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Usage creates a usage error with a formatted message.
func Usage(format string, args ...any) *Error {
	return New(CodeUsage, fmt.Sprintf(format, args...))
}

// Configuration wraps err as a fatal configuration error.
func Configuration(message string, err error) *Error {
	return Wrap(CodeConfiguration, message, err)
}

func sentinelFromCode(code int) error {
	switch code {
	case CodeUsage:
		return ErrUsage
	case CodeConfiguration:
		return ErrConfiguration
	case CodeResolve:
		return ErrResolve
	case CodeConnection:
		return ErrConnection
	case CodeInternal:
		return ErrInternal
	default:
		return nil
	}
}

// ExitCode maps an error returned to the process boundary to an exit status:
// 0 for nil, 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// IsFatal returns true if err must stop the process before the engine starts.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUsage) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrResolve)
}

// IsConnection returns true if the error is a per-connection failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}
