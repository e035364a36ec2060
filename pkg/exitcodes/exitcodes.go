// Package exitcodes defines the process exit codes used by
// jester.
//
// * Success (0): every module passed
// * 1..MaxFailures: the number of failed modules
// * RuntimeErr (255): the runner itself faulted, e.g. a missing
// test directory, an invalid flag, or a procedure that errored
package exitcodes

const (
	// Success means no module failed.
	Success = 0
	// MaxFailures caps the failed-module count so it never
	// collides with RuntimeErr.
	MaxFailures = 254
	// RuntimeErr signals a runner fault rather than test
	// failures.
	RuntimeErr = 255
)

// FromFailures maps a failed-module count to an exit code.
func FromFailures(failed int) int {
	switch {
	case failed <= 0:
		return Success
	case failed > MaxFailures:
		return MaxFailures
	default:
		return failed
	}
}
