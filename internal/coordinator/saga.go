// Package coordinator runs multi-step writes as sagas: steps execute in
// order and, on the first failure, the completed ones are compensated in
// reverse.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
)

// Step represents a single unit of work in the Saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	sagaID  string
	steps   []Step
	repo    sagalog.Repository // nil-safe
	payload string
}

// NewOrchestrator builds a saga. repo may be nil, in which case transitions
// are not persisted.
func NewOrchestrator(sagaID string, steps []Step, repo sagalog.Repository) *Orchestrator {
	return &Orchestrator{sagaID: sagaID, steps: steps, repo: repo}
}

// WithPayload stores v as the JSON payload of the STARTED entry.
func (o *Orchestrator) WithPayload(v any) *Orchestrator {
	if b, err := json.Marshal(v); err == nil {
		o.payload = string(b)
	}
	return o
}

// Start runs the saga steps sequentially.
// If a step fails, it triggers the compensation of all previously successful steps.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var successfulSteps []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, compensating", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", errs)

			errs = append(errs, o.rollback(ctx, successfulSteps)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)
			return fmt.Errorf("saga %s: %s: %w", o.sagaID, step.Name(), err)
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.InfoContext(ctx, "saga completed", "saga_id", o.sagaID)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate saga step",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.repo == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.repo.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to write saga log", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
