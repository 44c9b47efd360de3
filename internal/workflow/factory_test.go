package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/definition"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// stubResolver resolves task types against a fixed set.
type stubResolver map[string]bool

func (r stubResolver) Has(taskType string) bool { return r[taskType] }

var testResolver = stubResolver{
	"polygonArea":      true,
	"analysis":         true,
	"notification":     true,
	"reportGeneration": true,
}

func setupFactory(t *testing.T) (*Factory, *store.Store) {
	t.Helper()
	s, err := store.NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewFactory(s, testResolver), s
}

func intPtr(v int) *int { return &v }

func TestFactory_Create(t *testing.T) {
	factory, s := setupFactory(t)

	def := &definition.Definition{
		Name: "polygon_test_workflow",
		Steps: []definition.Step{
			{TaskType: "polygonArea", StepNumber: 1},
			{TaskType: "notification", StepNumber: 2, DependsOn: intPtr(1)},
		},
	}

	geoJSON := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	wf, err := factory.Create(context.Background(), def, "client-1", geoJSON)
	assert.NoError(t, err)
	assert.Equal(t, model.WorkflowStatusInitial, wf.Status)
	assert.Len(t, wf.Tasks, 2)

	tasks, err := s.ListTasksByWorkflowID(wf.ID)
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)

	for _, task := range tasks {
		assert.Equal(t, model.TaskStatusQueued, task.Status)
		assert.Equal(t, geoJSON, task.GeoJSON)
		assert.Equal(t, "client-1", task.ClientID)
	}

	assert.Nil(t, tasks[0].DependsOnID)
	if assert.NotNil(t, tasks[1].DependsOnID) {
		assert.Equal(t, tasks[0].ID, *tasks[1].DependsOnID)
	}
}

func TestFactory_Create_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		def   *definition.Definition
		wants string
	}{
		{
			name:  "no steps",
			def:   &definition.Definition{Name: "empty"},
			wants: "Invalid workflow: definition has no steps",
		},
		{
			name: "unknown task type",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "teleport", StepNumber: 1},
			}},
			wants: "Invalid workflow: unknown task type: teleport",
		},
		{
			name: "duplicate step number",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "polygonArea", StepNumber: 1},
				{TaskType: "analysis", StepNumber: 1},
			}},
			wants: "Invalid workflow: duplicate step number 1",
		},
		{
			name: "non-positive step number",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "polygonArea", StepNumber: 0},
			}},
			wants: "Invalid workflow: step number 0 is not positive",
		},
		{
			name: "self dependency",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "polygonArea", StepNumber: 1, DependsOn: intPtr(1)},
			}},
			wants: "Invalid workflow: bad dependency: step 1 depends on itself",
		},
		{
			name: "unknown dependency",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "polygonArea", StepNumber: 1},
				{TaskType: "notification", StepNumber: 2, DependsOn: intPtr(9)},
			}},
			wants: "Invalid workflow: bad dependency: step 2 depends on unknown step 9",
		},
		{
			name: "forward dependency",
			def: &definition.Definition{Name: "wf", Steps: []definition.Step{
				{TaskType: "polygonArea", StepNumber: 1, DependsOn: intPtr(2)},
				{TaskType: "notification", StepNumber: 2},
			}},
			wants: "Invalid workflow: bad dependency: step 1 depends on later step 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, s := setupFactory(t)

			_, err := factory.Create(context.Background(), tt.def, "client-1", "{}")
			if assert.Error(t, err) {
				var invalid *InvalidWorkflowError
				assert.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.wants, err.Error())
			}

			// Validation failures must leave no rows behind.
			queued, err := s.ListTasksByStatus(model.TaskStatusQueued)
			assert.NoError(t, err)
			assert.Empty(t, queued)
		})
	}
}
