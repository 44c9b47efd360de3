package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OpenGeoFlow/geoflow/internal/job"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// ErrDependencyNotSatisfied is returned when a task is dispatched while its
// dependency has not completed. The dispatcher should never issue such a run;
// this is a defensive check.
var ErrDependencyNotSatisfied = errors.New("task dependency is not completed")

// Reconciler recomputes a workflow's status after a task transition.
// Satisfied by the workflow reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, workflowID uuid.UUID) error
}

// Runner drives a single task through its lifecycle: marks it in progress,
// threads the dependency output into its input, invokes the job, persists the
// result and triggers workflow reconciliation.
type Runner struct {
	store      *store.Store
	registry   *job.Registry
	reconciler Reconciler
}

func New(s *store.Store, registry *job.Registry, reconciler Reconciler) *Runner {
	return &Runner{store: s, registry: registry, reconciler: reconciler}
}

// Run executes one queued task to a terminal status. A job failure fails the
// task and is returned to the dispatcher for logging; it never aborts the
// dispatch loop.
func (r *Runner) Run(ctx context.Context, task *model.Task) error {
	if task.Status != model.TaskStatusQueued {
		return fmt.Errorf("task %s is not queued (status %s)", task.ID, task.Status)
	}

	progress := "starting job..."
	task.Status = model.TaskStatusInProgress
	task.Progress = &progress
	if err := r.store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to mark task %s in progress: %w", task.ID, err)
	}

	if task.DependsOnID != nil {
		dependency, err := r.store.GetTaskByID(*task.DependsOnID)
		if err != nil {
			return r.fail(ctx, task, fmt.Errorf("failed to load dependency %s: %w", *task.DependsOnID, err))
		}
		if dependency.Status != model.TaskStatusCompleted {
			return r.fail(ctx, task, ErrDependencyNotSatisfied)
		}
		task.Input = dependency.Output
		if err := r.store.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to persist task input %s: %w", task.ID, err)
		}
	}

	j, err := r.registry.Lookup(task.TaskType)
	if err != nil {
		return r.fail(ctx, task, err)
	}

	value, err := j.Run(ctx, task)
	if err != nil {
		return r.fail(ctx, task, err)
	}

	data, err := serialize(value)
	if err != nil {
		return r.fail(ctx, task, err)
	}
	result := &model.Result{TaskID: task.ID, Data: data}
	if err := r.store.CreateResult(result); err != nil {
		return fmt.Errorf("failed to persist result for task %s: %w", task.ID, err)
	}

	task.ResultID = &result.ID
	task.Status = model.TaskStatusCompleted
	task.Progress = nil
	if err := r.store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", task.ID, err)
	}

	slog.InfoContext(ctx, "task completed",
		"taskID", task.ID,
		"workflowID", task.WorkflowID,
		"taskType", task.TaskType,
		"stepNumber", task.StepNumber,
	)

	return r.reconciler.Reconcile(ctx, task.WorkflowID)
}

// fail transitions the task to failed, reconciles the workflow and
// re-surfaces the job error. The job's output (including any structured
// error envelope it wrote) is preserved as-is.
func (r *Runner) fail(ctx context.Context, task *model.Task, jobErr error) error {
	task.Status = model.TaskStatusFailed
	task.Progress = nil
	if task.Output == nil {
		envelope, err := json.Marshal(map[string]string{"error": jobErr.Error()})
		if err == nil {
			out := string(envelope)
			task.Output = &out
		}
	}
	if err := r.store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to mark task %s failed: %w", task.ID, err)
	}

	slog.ErrorContext(ctx, "task failed",
		"taskID", task.ID,
		"workflowID", task.WorkflowID,
		"taskType", task.TaskType,
		"stepNumber", task.StepNumber,
		"error", jobErr,
	)

	if err := r.reconciler.Reconcile(ctx, task.WorkflowID); err != nil {
		return err
	}
	return jobErr
}

// serialize encodes the job return value; a nil value serializes to "{}".
func serialize(value any) (string, error) {
	if value == nil {
		return "{}", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize job return value: %w", err)
	}
	return string(data), nil
}
