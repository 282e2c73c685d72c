package metrics

import "time"

// Generation outcomes
const (
	OutcomeComplete   = "complete"
	OutcomeIncomplete = "incomplete"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
	OutcomeConflict   = "conflict"
	OutcomeRejected   = "rejected"
)

// Publish outcomes
const (
	OutcomePublished = "published"
	OutcomeBlocked   = "blocked"
	OutcomeNotDraft  = "not_draft"
	OutcomeError     = "error"
)

// Recorder receives roster engine measurements.
//
// Implementations must be safe for concurrent use: generation tasks report from their own goroutines.
type Recorder interface {
	// ObserveGeneration records one finished generation attempt for a station
	ObserveGeneration(station, outcome string, duration time.Duration, unresolved int)

	// ObservePublish records the outcome of a publish request
	ObservePublish(outcome string)

	// ObserveCompliance records one member compliance evaluation by status
	ObserveCompliance(status string)
}
