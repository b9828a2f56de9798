// Package app provides the application context for flatjail.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config *config.Config          // Loaded configuration
//	    FS     system.FileSystem       // Host file system
//	    Exec   system.CommandExecutor  // External commands
//	    Jail   jail.Runtime            // Confinement runtime
//	}
//
// # Creating an App
//
//	// Production usage, once the config is loaded
//	a := app.New(app.WithConfig(cfg))
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(testConfig),
//	    app.WithExecutor(mockExec),
//	    app.WithJail(mockJail),
//	)
//
// # Available Options
//
//	WithConfig(cfg)       // Loaded configuration
//	WithFS(fs)            // Custom file system
//	WithExecutor(exec)    // Custom command executor
//	WithJail(runtime)     // Custom jail runtime
package app
