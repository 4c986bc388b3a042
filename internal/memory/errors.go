package memory

import "fmt"

// PersistenceError reports a failed read or write of the discovery store.
// Callers log and swallow it; it never changes the profile returned for a call.
type PersistenceError struct {
	Op      string
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("memory %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("memory %s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
