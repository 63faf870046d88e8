package conversation

import (
	"fmt"
	"strings"
)

// ValidationError reports a structurally malformed conversation. It is
// returned before any synthesis work starts.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid conversation: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// SynthesisError is a per-line audio failure. It is recorded on the cue
// and never aborts the batch.
type SynthesisError struct {
	Index int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("line %d: audio synthesis failed: %v", e.Index, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError from a list of problems.
func Invalid(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}
