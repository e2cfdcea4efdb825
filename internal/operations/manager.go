package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dyadpanel/internal/infrastructure"
)

// Manager executes steps in order
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new operation manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger.With(slog.String("component", "operations"))}
}

// Execute runs steps sequentially against state. Each step depends on the
// artifacts of the previous ones, so the first failure skips the rest.
func (m *Manager) Execute(ctx context.Context, state *OperationState, steps []Step) error {
	for _, step := range steps {
		state.addStage(step)
	}
	state.Start()
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", state.ID),
		slog.Int("step_count", len(steps)))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			opErr := NewCancellationError(step.ID(), err)
			m.skipRemaining(state, steps[i:], "operation cancelled")
			state.Cancel(opErr)
			return opErr
		}

		if err := m.executeStep(ctx, state, step, i+1, len(steps)); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			if ctx.Err() != nil {
				state.Cancel(err)
			} else {
				state.Fail(err)
			}
			return err
		}
	}

	state.Complete()
	m.logger.InfoContext(ctx, "all_steps_completed",
		slog.String("operation_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, n, total int) error {
	stepState := state.GetStage(step.ID())

	if err := step.Validate(state); err != nil {
		m.logger.ErrorContext(ctx, "step_validation_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		opErr := NewValidationError(step.ID(), err)
		stepState.Fail(opErr)
		return opErr
	}

	m.logger.InfoContext(ctx, "executing_step",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Int("step_number", n),
		slog.Int("total_steps", total))

	ctx, span := otel.Tracer("dyadpanel/internal/operations").Start(ctx, "step."+step.ID(),
		trace.WithAttributes(attribute.String("operation_id", state.ID)))
	defer span.End()

	stepState.Start()
	start := time.Now()
	if err := step.Execute(ctx, state); err != nil {
		infrastructure.RecordError(ctx, err)
		m.logger.ErrorContext(ctx, "step_execution_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		opErr := NewExecutionError(step.ID(), err)
		stepState.Fail(opErr)
		return opErr
	}

	stepState.Complete(fmt.Sprintf("%s completed", step.Name()))
	m.logger.InfoContext(ctx, "step_completed",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", stepState.Duration()))
	return nil
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStage(step.ID()); s != nil && s.Status == StepStatusPending {
			s.Skip(reason)
		}
	}
}
