// Package job orchestrates the daily pipeline: fetch the universe for a
// date, prime indicator history from the store, evaluate strategies and
// commit the date atomically.
package job

// DateState is the lifecycle of one trading date inside a run.
type DateState int

const (
	StatePending DateState = iota
	StateFetching
	StateComputing
	StateEvaluating
	StateCommitted
	// StateFailed marks orchestration-level faults only: a commit that
	// keeps failing, or cancellation mid-date. Per-instrument fetch and
	// evaluation failures never fail the date.
	StateFailed
)

func (s DateState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateComputing:
		return "computing"
	case StateEvaluating:
		return "evaluating"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
