// Package errors provides typed errors with exit codes for flatjail.
//
// # Error Types
//
// Error is the base error type that wraps an error with an exit code:
//
//	type Error struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess          = 0  // Success
//	ExitGeneralError     = 1  // General errors, including every run setup failure
//	ExitRepoToolMissing  = 2  // No ostree binary found
//	ExitPullFailed       = 3  // ostree pull failed
//	ExitCheckoutFailed   = 4  // ostree checkout failed
//	ExitDependencyCycle  = 5  // A runtime dependency reintroduced a visited ref
//	ExitConfigError      = 6  // Configuration error
//	ExitInvalidReference = 7  // Identifier could not be canonicalized
//
// A run that reaches the confined process exits with that process's
// status, carried by ChildExit.
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
