package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// ReportArchiver stores a terminal workflow's finalResult durably.
// Satisfied by the archive package; may be nil when archival is disabled.
type ReportArchiver interface {
	Archive(ctx context.Context, workflowID uuid.UUID, data string) error
}

// FinalResultTask is one task entry in the reconciler's aggregated finalResult.
type FinalResultTask struct {
	TaskID     uuid.UUID        `json:"taskId"`
	Type       string           `json:"type"`
	StepNumber int              `json:"stepNumber"`
	Status     model.TaskStatus `json:"status"`
	Output     any              `json:"output,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// FinalResultEnvelope is the reconciler's aggregated finalResult document.
type FinalResultEnvelope struct {
	WorkflowID  uuid.UUID            `json:"workflowId"`
	Status      model.WorkflowStatus `json:"status"`
	Tasks       []FinalResultTask    `json:"tasks"`
	GeneratedAt string               `json:"generatedAt"`
}

// Reconciler recomputes a workflow's status from its tasks after every task
// transition, and writes the aggregated finalResult on the first transition
// into a terminal status.
type Reconciler struct {
	store    *store.Store
	archiver ReportArchiver
	now      func() time.Time
}

func NewReconciler(s *store.Store, archiver ReportArchiver) *Reconciler {
	return &Reconciler{store: s, archiver: archiver, now: time.Now}
}

// Reconcile loads the workflow with its tasks and reconciles status and
// finalResult. It is idempotent: invoked twice with no intervening task
// transitions it leaves the workflow row unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, workflowID uuid.UUID) error {
	workflow, err := r.store.GetWorkflowWithTasks(workflowID)
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	newStatus := computeStatus(workflow.Tasks)

	changed := false
	if workflow.Status != newStatus && !workflow.Status.IsTerminal() {
		workflow.Status = newStatus
		changed = true
	}

	// The finalResult is written once, when the workflow is terminal and no
	// task can make further progress. A successfully completed report task
	// has already written a richer finalResult; that one is left untouched.
	if workflow.Status.IsTerminal() && workflow.FinalResult == nil && allSettled(workflow.Tasks) {
		envelope, err := r.buildFinalResult(workflow)
		if err != nil {
			return err
		}
		workflow.FinalResult = &envelope
		changed = true
	}

	if !changed {
		return nil
	}

	if err := r.store.UpdateWorkflow(workflow); err != nil {
		return fmt.Errorf("failed to update workflow %s: %w", workflowID, err)
	}

	slog.InfoContext(ctx, "workflow reconciled",
		"workflowID", workflowID,
		"status", workflow.Status,
		"terminal", workflow.Status.IsTerminal(),
	)

	if workflow.Status.IsTerminal() && workflow.FinalResult != nil && r.archiver != nil {
		// Best effort: archival failures never fail the reconciliation.
		if err := r.archiver.Archive(ctx, workflowID, *workflow.FinalResult); err != nil {
			slog.ErrorContext(ctx, "failed to archive final result",
				"workflowID", workflowID,
				"error", err)
		}
	}

	return nil
}

// computeStatus derives the workflow status from its tasks.
func computeStatus(tasks []model.Task) model.WorkflowStatus {
	allCompleted := len(tasks) > 0
	anyFailed := false
	anyStarted := false
	for _, task := range tasks {
		if task.Status != model.TaskStatusCompleted {
			allCompleted = false
		}
		if task.Status == model.TaskStatusFailed {
			anyFailed = true
		}
		if task.Status != model.TaskStatusQueued {
			anyStarted = true
		}
	}
	switch {
	case anyFailed:
		return model.WorkflowStatusFailed
	case allCompleted:
		return model.WorkflowStatusCompleted
	case anyStarted:
		return model.WorkflowStatusInProgress
	default:
		return model.WorkflowStatusInitial
	}
}

// allSettled reports whether no task can make further progress: nothing is
// running, and every queued task is permanently blocked behind a failed
// dependency chain.
func allSettled(tasks []model.Task) bool {
	byID := make(map[uuid.UUID]model.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	for _, task := range tasks {
		switch task.Status {
		case model.TaskStatusInProgress:
			return false
		case model.TaskStatusQueued:
			if !permanentlyBlocked(task, byID) {
				return false
			}
		}
	}
	return true
}

// permanentlyBlocked walks the dependency chain of a queued task and reports
// whether it can never run because an ancestor failed.
func permanentlyBlocked(task model.Task, byID map[uuid.UUID]model.Task) bool {
	for task.DependsOnID != nil {
		dep, ok := byID[*task.DependsOnID]
		if !ok {
			return false
		}
		switch dep.Status {
		case model.TaskStatusFailed:
			return true
		case model.TaskStatusQueued:
			task = dep
		default:
			return false
		}
	}
	return false
}

// buildFinalResult serializes the per-task aggregate envelope.
func (r *Reconciler) buildFinalResult(workflow *model.Workflow) (string, error) {
	entries := make([]FinalResultTask, 0, len(workflow.Tasks))
	for _, task := range workflow.Tasks {
		entry := FinalResultTask{
			TaskID:     task.ID,
			Type:       task.TaskType,
			StepNumber: task.StepNumber,
			Status:     task.Status,
		}
		switch task.Status {
		case model.TaskStatusCompleted:
			if task.Output != nil {
				entry.Output = model.ParseOrRaw(*task.Output)
			}
		case model.TaskStatusFailed:
			entry.Error = model.ExtractError(task.Output)
		}
		entries = append(entries, entry)
	}

	envelope := FinalResultEnvelope{
		WorkflowID:  workflow.ID,
		Status:      workflow.Status,
		Tasks:       entries,
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to serialize final result: %w", err)
	}
	return string(data), nil
}
