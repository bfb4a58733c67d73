package events

import "fmt"

// MalformedEventError reports a raw row that failed normalization. The row is
// excluded from downstream aggregates but the batch itself continues; callers
// decide whether any malformed rows are acceptable for their use case.
type MalformedEventError struct {
	Row    int    // zero-based index into the raw input
	Field  string // the offending field
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event at row %d: field %q: %s", e.Row, e.Field, e.Reason)
}
