package reports

import "fmt"

// ValidationError reports a required draft field that was empty after
// trimming. It is distinguishable from persistence failures so callers can
// keep the user's draft and surface the missing field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}
