package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// TaskRunner executes one queued task to a terminal status.
// Satisfied by the runner package.
type TaskRunner interface {
	Run(ctx context.Context, task *model.Task) error
}

// Dispatcher is the single-threaded scheduling loop. Every poll interval it
// scans queued tasks across all workflows ordered by step number, skips the
// blocked ones and hands the first runnable task to the runner. At most one
// task executes per cycle.
type Dispatcher struct {
	store    *store.Store
	runner   TaskRunner
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func New(s *store.Store, runner TaskRunner, interval time.Duration) *Dispatcher {
	return &Dispatcher{store: s, runner: runner, interval: interval}
}

// Start requeues tasks orphaned in progress by a previous run, then launches
// the polling loop in a background goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	requeued, err := d.store.RequeueInProgressTasks()
	if err != nil {
		slog.ErrorContext(ctx, "failed to requeue orphaned tasks", "error", err)
	} else if requeued > 0 {
		slog.InfoContext(ctx, "requeued orphaned in-progress tasks", "count", requeued)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.loop(loopCtx)
	slog.InfoContext(ctx, "dispatcher started", "pollInterval", d.interval)
}

// Stop cancels the loop and blocks until the current cycle finishes.
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	slog.Info("dispatcher stopped")
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		if _, err := d.dispatchOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "dispatch cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.interval):
		}
	}
}

// dispatchOnce runs a single scheduling cycle: it picks the queued task with
// the lowest step number that is not blocked and runs it. It reports whether
// a task was dispatched. A job failure is handled inside the runner and does
// not surface here.
func (d *Dispatcher) dispatchOnce(ctx context.Context) (bool, error) {
	queued, err := d.store.ListTasksByStatus(model.TaskStatusQueued)
	if err != nil {
		return false, err
	}
	if len(queued) == 0 {
		return false, nil
	}

	workflowIDs := make([]uuid.UUID, 0, len(queued))
	seen := make(map[uuid.UUID]bool, len(queued))
	for _, task := range queued {
		if !seen[task.WorkflowID] {
			seen[task.WorkflowID] = true
			workflowIDs = append(workflowIDs, task.WorkflowID)
		}
	}
	siblings, err := d.store.ListTasksByWorkflowIDs(workflowIDs)
	if err != nil {
		return false, err
	}

	byID := make(map[uuid.UUID]model.Task, len(siblings))
	byWorkflow := make(map[uuid.UUID][]model.Task, len(workflowIDs))
	for _, task := range siblings {
		byID[task.ID] = task
		byWorkflow[task.WorkflowID] = append(byWorkflow[task.WorkflowID], task)
	}

	for _, candidate := range queued {
		if blocked(candidate, byID, byWorkflow[candidate.WorkflowID]) {
			continue
		}
		task := candidate
		if err := d.runner.Run(ctx, &task); err != nil {
			slog.ErrorContext(ctx, "task run failed",
				"taskID", task.ID,
				"workflowID", task.WorkflowID,
				"taskType", task.TaskType,
				"error", err,
			)
		}
		return true, nil
	}
	return false, nil
}

// blocked decides whether a queued task may run this cycle.
//
// A task with an explicit dependency waits until that dependency completes;
// a failed dependency blocks it forever. A task without one waits until no
// sibling with a smaller step number is queued or running, so it still runs
// after an earlier sibling fails.
func blocked(task model.Task, byID map[uuid.UUID]model.Task, siblings []model.Task) bool {
	if task.DependsOnID != nil {
		dep, ok := byID[*task.DependsOnID]
		if !ok {
			return true
		}
		return dep.Status != model.TaskStatusCompleted
	}
	for _, sibling := range siblings {
		if sibling.StepNumber >= task.StepNumber {
			continue
		}
		if sibling.Status == model.TaskStatusQueued || sibling.Status == model.TaskStatusInProgress {
			return true
		}
	}
	return false
}
