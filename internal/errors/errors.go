package errors

import (
	"errors"
	"fmt"
)

// Exit codes for flatjail
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitRepoToolMissing  = 2
	ExitPullFailed       = 3
	ExitCheckoutFailed   = 4
	ExitDependencyCycle  = 5
	ExitConfigError      = 6
	ExitInvalidReference = 7
)

// Error is the base error type for flatjail
type Error struct {
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *Error) ExitCode() int {
	return e.Code
}

// New creates a new Error
func New(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(code int, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// RepoToolMissing returns an error when no ostree binary can be found
func RepoToolMissing() *Error {
	return New(ExitRepoToolMissing, "ostree binary not found (install it under /compat/ubuntu or /compat/linux)")
}

// PullFailed returns an error for a failed ostree pull
func PullFailed(ref string, cause error) *Error {
	return Wrap(ExitPullFailed, fmt.Sprintf("pull of %s failed", ref), cause)
}

// CheckoutFailed returns an error for a failed ostree checkout
func CheckoutFailed(ref string, cause error) *Error {
	return Wrap(ExitCheckoutFailed, fmt.Sprintf("checkout of %s failed", ref), cause)
}

// DependencyCycle returns an error when a dependency reintroduces an
// already visited reference
func DependencyCycle(ref string) *Error {
	return New(ExitDependencyCycle, fmt.Sprintf("dependency cycle: %s is already being installed", ref))
}

// InvalidReference returns an error for an identifier that cannot be
// turned into a canonical reference
func InvalidReference(input string, cause error) *Error {
	return Wrap(ExitInvalidReference, fmt.Sprintf("invalid reference %q", input), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *Error {
	return Wrap(ExitConfigError, message, cause)
}

// AppNotInstalled returns an error when the app tree is missing at run time
func AppNotInstalled(appID, path string) *Error {
	return New(ExitGeneralError, fmt.Sprintf("app %s is not installed (missing %s)", appID, path))
}

// RuntimeNotInstalled returns an error when the runtime tree is missing at run time
func RuntimeNotInstalled(runtimeRef, path string) *Error {
	return New(ExitGeneralError, fmt.Sprintf("runtime %s is not installed (missing %s)", runtimeRef, path))
}

// SetupFailed returns an error for a sandbox construction failure
func SetupFailed(phase string, cause error) *Error {
	return Wrap(ExitGeneralError, fmt.Sprintf("sandbox setup failed during %s", phase), cause)
}

// PrivilegeRequired returns an error when a command needs root
func PrivilegeRequired(command string) *Error {
	return New(ExitGeneralError, fmt.Sprintf("%s requires root", command))
}

// ChildExit carries the exit status of the confined process
func ChildExit(code int) *Error {
	return New(code, fmt.Sprintf("application exited with status %d", code))
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *Error {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var flatErr *Error
	if errors.As(err, &flatErr) {
		return flatErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
