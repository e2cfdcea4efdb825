package operations

import (
	"time"

	"dyadpanel/internal/dataprocessing"
	"dyadpanel/internal/model"
	"dyadpanel/internal/panel"
	"dyadpanel/internal/report"
	"dyadpanel/pkg/contracts/domain"
)

// OperationStatus is the overall status of a run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState is the state of one run: step bookkeeping plus the
// artifacts each step produced.
type OperationState struct {
	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState
	order []string

	Tables     *domain.Tables
	LoadReport *dataprocessing.LoadReport
	Panel      *panel.Panel
	Summary    *report.Summary
	Models     []*model.Result

	// Written lists the output files in the order they were written
	Written []string
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:     id,
		Status: OperationStatusPending,
		steps:  make(map[string]*StepState),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStage returns the state of a step, or nil if it is not part of the run
func (p *OperationState) GetStage(id string) *StepState {
	return p.steps[id]
}

// Stages returns the step states in execution order
func (p *OperationState) Stages() []*StepState {
	out := make([]*StepState, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.steps[id])
	}
	return out
}

func (p *OperationState) addStage(step Step) *StepState {
	s := NewStepState(step.ID(), step.Name())
	if _, ok := p.steps[step.ID()]; !ok {
		p.order = append(p.order, step.ID())
	}
	p.steps[step.ID()] = s
	return s
}

// Duration returns the run time so far, or the total once finished
func (p *OperationState) Duration() time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
