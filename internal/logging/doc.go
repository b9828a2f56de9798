// Package logging provides logging utilities for flatjail.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("mounting bridge", "source", src, "target", dst)
//	logging.Warn("unmount failed", "target", target, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Pulling %s from %s...", ref, remote)
//	logging.UserSuccess("Installed %s", id)
//	logging.UserWarning("App copy may have failed")
//	logging.UserError("Failed to create jail: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
