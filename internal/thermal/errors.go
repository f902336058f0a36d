package thermal

import "fmt"

// ValidationError indicates a fetched payload failed structural checks:
// dimension mismatch, missing fields, or non-numeric data. Recoverable in
// continuous monitoring; terminal in single-shot mode.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid frame: %s: %v", e.Reason, e.Err)
	}
	return "invalid frame: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AnalysisError indicates an internal-logic fault in the pipeline, such as a
// violation of the cluster partition invariant. It aborts the current pass:
// a defective algorithm must never silently corrupt a reading.
type AnalysisError struct {
	Reason string
}

func (e *AnalysisError) Error() string {
	return "analysis fault: " + e.Reason
}
