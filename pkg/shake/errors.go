package shake

import (
	"errors"
	"fmt"
)

// ErrNoConvergence is returned when the fixed-point driver exceeds the
// configured maximum number of passes. Failing loudly beats silently
// under-including.
var ErrNoConvergence = errors.New("treeshaking did not converge within the configured pass limit")

// IllegalReassignmentError reports user code mutating an import
// binding, whose value is immutable by import semantics. It surfaces
// as a build error, not a crash.
type IllegalReassignmentError struct {
	Name     string
	ModuleID string
	Line     int
	Column   int
}

func (e *IllegalReassignmentError) Error() string {
	return fmt.Sprintf("illegal reassignment of import %q in module %s (%d:%d)", e.Name, e.ModuleID, e.Line, e.Column)
}

// InternalError signals a defect in the surrounding graph-construction
// logic, not in user input. Analysis aborts rather than guessing.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return "internal invariant violation: " + e.Reason
}
