package workflow

import "fmt"

// InvalidWorkflowError is returned when a workflow definition fails
// validation. It surfaces to the HTTP caller as a 400 before any rows are
// created.
type InvalidWorkflowError struct {
	Reason string
}

func (e *InvalidWorkflowError) Error() string {
	return fmt.Sprintf("Invalid workflow: %s", e.Reason)
}

// NewInvalidWorkflowError creates an InvalidWorkflowError with a formatted reason
func NewInvalidWorkflowError(format string, args ...any) *InvalidWorkflowError {
	return &InvalidWorkflowError{Reason: fmt.Sprintf(format, args...)}
}
