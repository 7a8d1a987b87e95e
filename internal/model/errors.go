package model

import "fmt"

// ValidationError reports malformed input at construction time. The
// caller must not proceed with the partially built value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
