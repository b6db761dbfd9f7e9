// Package sagalog records every transition of a checkout saga so a failed
// or interrupted checkout can be traced back to its request.
package sagalog

import "time"

// Status represents the lifecycle state of a saga execution.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is one appended transition.
type SagaLog struct {
	SagaID      string
	Status      Status
	CurrentStep string

	// Payload is the JSON input of the saga, written on STARTED only.
	Payload string

	// ErrorMessages is a JSON array of step and compensation failures.
	ErrorMessages string

	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}
