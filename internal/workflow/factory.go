package workflow

import (
	"context"
	"log/slog"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/definition"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// TypeResolver answers whether a task type has a registered job.
// Satisfied by the job registry.
type TypeResolver interface {
	Has(taskType string) bool
}

// Factory materializes a validated workflow definition into one workflow row
// and N queued task rows with dependency edges wired.
type Factory struct {
	store    *store.Store
	resolver TypeResolver
}

func NewFactory(s *store.Store, resolver TypeResolver) *Factory {
	return &Factory{store: s, resolver: resolver}
}

// Create validates the definition in full, then persists the workflow and its
// tasks. Validation failures surface as InvalidWorkflowError before any row
// is created.
func (f *Factory) Create(ctx context.Context, def *definition.Definition, clientID, geoJSON string) (*model.Workflow, error) {
	if err := f.validate(def); err != nil {
		return nil, err
	}

	workflow := &model.Workflow{
		ClientID: clientID,
		Status:   model.WorkflowStatusInitial,
	}
	if err := f.store.CreateWorkflow(workflow); err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, 0, len(def.Steps))
	for _, step := range def.Steps {
		tasks = append(tasks, &model.Task{
			ClientID:   clientID,
			WorkflowID: workflow.ID,
			TaskType:   step.TaskType,
			StepNumber: step.StepNumber,
			Status:     model.TaskStatusQueued,
			GeoJSON:    geoJSON,
		})
	}
	if err := f.store.CreateTasks(tasks); err != nil {
		return nil, err
	}

	// Tasks have identities now; resolve dependsOn step numbers into task
	// references and persist the wiring.
	taskByStep := make(map[int]*model.Task, len(tasks))
	for _, task := range tasks {
		taskByStep[task.StepNumber] = task
	}
	for i, step := range def.Steps {
		if step.DependsOn == nil {
			continue
		}
		depID := taskByStep[*step.DependsOn].ID
		tasks[i].DependsOnID = &depID
		if err := f.store.UpdateTask(tasks[i]); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "workflow created",
		"workflowID", workflow.ID,
		"clientID", clientID,
		"definition", def.Name,
		"taskCount", len(tasks),
	)

	workflow.Tasks = make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		workflow.Tasks = append(workflow.Tasks, *task)
	}
	return workflow, nil
}

// validate checks the definition in full prior to any mutation.
func (f *Factory) validate(def *definition.Definition) error {
	if def == nil {
		return NewInvalidWorkflowError("definition is missing")
	}
	if def.Name == "" {
		return NewInvalidWorkflowError("definition has no name")
	}
	if len(def.Steps) == 0 {
		return NewInvalidWorkflowError("definition has no steps")
	}

	stepNumbers := make(map[int]bool, len(def.Steps))
	for _, step := range def.Steps {
		if step.StepNumber <= 0 {
			return NewInvalidWorkflowError("step number %d is not positive", step.StepNumber)
		}
		if stepNumbers[step.StepNumber] {
			return NewInvalidWorkflowError("duplicate step number %d", step.StepNumber)
		}
		stepNumbers[step.StepNumber] = true

		if !f.resolver.Has(step.TaskType) {
			return NewInvalidWorkflowError("unknown task type: %s", step.TaskType)
		}
	}

	for _, step := range def.Steps {
		if step.DependsOn == nil {
			continue
		}
		dep := *step.DependsOn
		if dep == step.StepNumber {
			return NewInvalidWorkflowError("bad dependency: step %d depends on itself", step.StepNumber)
		}
		if !stepNumbers[dep] {
			return NewInvalidWorkflowError("bad dependency: step %d depends on unknown step %d", step.StepNumber, dep)
		}
		if dep > step.StepNumber {
			return NewInvalidWorkflowError("bad dependency: step %d depends on later step %d", step.StepNumber, dep)
		}
	}
	return nil
}
