// ABOUTME: Structured error kinds for the annealer's entry point
// ABOUTME: InvalidInput, InvalidConfig, and Cancelled — see spec §7

package anneal

import "fmt"

// InvalidInputError reports a malformed input array (spec.md §7).
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("anneal: invalid input: %s", e.Reason)
}

// InvalidConfigError reports a malformed cost/anneal parameter
// (spec.md §7).
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("anneal: invalid config: %s", e.Reason)
}

// CancelledError is returned by Optimize only when cancellation is
// observed before any attempt has completed, so there is no
// best-so-far state to report; the accompanying Result is empty apart
// from Cancelled == true. A cancellation after at least one completed
// attempt returns that best-so-far Result with Cancelled set to true
// and a nil error.
type CancelledError struct{}

func (e *CancelledError) Error() string {
	return "anneal: cancelled"
}
