package discovery

import "fmt"

// SearchUnavailableError reports a failed or timed out search call.
// The pipeline treats it as zero results and continues on the synthetic path.
type SearchUnavailableError struct {
	Query string
	Cause error
}

func (e *SearchUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search unavailable for %q: %v", e.Query, e.Cause)
	}
	return fmt.Sprintf("search unavailable for %q", e.Query)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Cause
}

// IdentityMismatchError reports evidence that describes a different entity
type IdentityMismatchError struct {
	Company string
	Reason  string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("identity mismatch for %s: %s", e.Company, e.Reason)
}

// ValidationExhaustedError reports a profile the critic still rejected after the iteration bound
type ValidationExhaustedError struct {
	Iterations int
	Reason     string
}

func (e *ValidationExhaustedError) Error() string {
	return fmt.Sprintf("validation exhausted after %d iterations: %s", e.Iterations, e.Reason)
}
