package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, network, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for the failure taxonomy.
var (
	// ErrNotFound indicates an expected file or entry is absent.
	ErrNotFound = crdb.New("not found")

	// ErrPathResolution indicates a path token could not be expanded.
	ErrPathResolution = crdb.New("path could not be resolved")

	// ErrInvalidFormat indicates a document is not valid JSON or a container
	// key has the wrong shape.
	ErrInvalidFormat = crdb.New("invalid format")

	// ErrNoRecognizedFormat indicates format detection found no known container.
	ErrNoRecognizedFormat = crdb.New("no recognized MCP format")

	// ErrToolNotSupported indicates an unknown tool id.
	ErrToolNotSupported = crdb.New("tool not supported")

	// ErrIO marks an underlying filesystem or transport failure.
	ErrIO = crdb.New("i/o failure")

	// ErrPermissionDenied marks an I/O failure caused by missing permissions.
	ErrPermissionDenied = crdb.New("permission denied")

	// ErrConflictsPending indicates a sync needs conflict resolutions.
	ErrConflictsPending = crdb.New("conflicts pending resolution")

	// ErrPathBlocked indicates a write into a protected system location.
	ErrPathBlocked = crdb.New("path is in a protected system location")

	// ErrPathUnsafe indicates a write outside known-safe locations that was
	// not explicitly allowed.
	ErrPathUnsafe = crdb.New("path is outside known-safe locations")

	// ErrDuplicateServer indicates a server name is already taken.
	ErrDuplicateServer = crdb.New("server already exists")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")
)

// New, Newf, Wrap, Wrapf, Is, As and friends delegate to cockroachdb/errors.
var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	Is       = crdb.Is
	As       = crdb.As
	Mark     = crdb.Mark
	WithHint = crdb.WithHint
	Join     = crdb.Join
)

// Hints returns every hint attached to err, outermost first.
func Hints(err error) []string {
	return crdb.GetAllHints(err)
}

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Run: mcpsync config list",
	}
}

// FromKind converts err into an ExitError whose code and suggestion follow
// the error's kind. An existing ExitError in the chain is returned as is.
func FromKind(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr
	}

	switch KindOf(err) {
	case KindIO:
		return NewSystemError(err, "")
	case KindPermissionDenied:
		return NewSystemError(err, "Check the file permissions of the target config")
	case KindToolNotSupported:
		return NewUserError(err, "Run: mcpsync tools list")
	case KindConflictsPending:
		return NewUserError(err, "Re-run with --strategy source|target, --resolutions FILE or --interactive")
	case KindPathResolution:
		return NewUserError(err, "Set HOME or use an absolute path")
	default:
		return NewExitError(err, ExitUser)
	}
}

// Error returns the error message from the underlying error.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}
