package build

import (
	"fmt"
	"strings"
)

// An EnvironmentError reports a host precondition the run cannot proceed
// without, such as a missing external tool.
type EnvironmentError struct {
	Message string
}

// Error returns the error message.
func (e *EnvironmentError) Error() string {
	return e.Message
}

// An InputFormatError reports user-supplied input the pipeline cannot
// safely process: an unreadable or incomplete archive, or a substitution
// value that would corrupt the patched boot configs.
type InputFormatError struct {
	Message string
}

// Error returns the error message.
func (e *InputFormatError) Error() string {
	return e.Message
}

// A ResolutionError reports that an artifact location could not be derived
// from any of its fallback candidates.
type ResolutionError struct {
	Location   string
	Candidates []string
}

// Error returns the error message.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: tried %s", e.Location, strings.Join(e.Candidates, ", "))
}

// A StageError reports a failure inside one pipeline stage. It wraps the
// underlying cause.
type StageError struct {
	Stage string
	Err   error
}

// Error returns the error message.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the wrapped cause.
func (e *StageError) Unwrap() error {
	return e.Err
}
