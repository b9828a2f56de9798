// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/config.toml                     a valid config overriding defaults
//	fixtures/invalid_config.toml             a config with an unknown launcher
//	fixtures/org.gnome.Calculator.flatpakref a ref file for the calculator
//	fixtures/calculator.metadata             the calculator app metadata
//	fixtures/platform.metadata               its runtime metadata
//
// LoadFixture returns the raw bytes; WriteFixture drops a copy on disk for
// code that reads paths.
//
// # Test Environment
//
// NewTestEnv builds a configuration whose installation base, jail roots
// and host resources all live in a temporary directory, backed by a mock
// command executor and a mock jail runtime, and installs it as app.Default:
//
//	func TestRun(t *testing.T) {
//	    env := testutil.NewTestEnv(t)
//	    defer env.Cleanup()
//
//	    env.InstallCalculator()
//	    // run code that uses app.Default
//	}
//
// The executor's Pipe copies the producer's directory into the consumer's,
// which is what the tar pair used for tree copies does.
package testutil
