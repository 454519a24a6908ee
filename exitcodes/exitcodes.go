// Package exitcodes defines the standard exit codes used by ikos-harness.
package exitcodes

// Exit code constants used by ikos-harness
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the analyzer ran and found no error-severity diagnostics
// * TestFailure (1): Used when the analyzer found error-severity diagnostics
// * RuntimeErr (2): Used for runtime errors such as a missing tool, malformed output or write failures
const (
	Success     = 0 // Analysis ran clean
	TestFailure = 1 // Error-severity diagnostics found
	RuntimeErr  = 2 // Harness failed to run or persist the analysis
)
