package claim

import (
	"fmt"
	"strings"
)

// ProjectFailure is the outcome of one candidate that could not be
// transferred.
type ProjectFailure struct {
	ProjectID string
	Err       error
}

// PartialFailureError aggregates per-project claim failures. It is a soft
// condition: the failed projects stay guest-scoped and are picked up by the
// next claim, so callers log it rather than propagate it.
type PartialFailureError struct {
	Failures []ProjectFailure
}

func (e *PartialFailureError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ProjectID
	}
	return fmt.Sprintf("claim failed for %d project(s): %s", len(e.Failures), strings.Join(ids, ", "))
}
