package oracle

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis error taxonomy. Callers distinguish
// them with errors.Is.
var (
	// ErrAnalysisTimeout means a query exceeded its wait bound. The
	// correlation slot is released; a late response is discarded.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrAnalysisUnavailable means the analyzer process died or never
	// started. The session is torn down and respawned on next use.
	ErrAnalysisUnavailable = errors.New("analyzer unavailable")
)

// ValidationError reports a query rejected before reaching the analyzer:
// malformed params or a path escaping the permitted root.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + e.Message
}

// QueryError reports an error response returned by the analyzer itself.
type QueryError struct {
	Kind    QueryKind
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("analyzer %s query failed: %s", e.Kind, e.Message)
}
