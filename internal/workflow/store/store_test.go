package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_WorkflowRoundTrip(t *testing.T) {
	s := setupStore(t)

	wf := &model.Workflow{ClientID: "client-1", Status: model.WorkflowStatusInitial}
	assert.NoError(t, s.CreateWorkflow(wf))
	assert.NotEqual(t, uuid.Nil, wf.ID, "BeforeCreate should assign an ID")

	loaded, err := s.GetWorkflowByID(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, "client-1", loaded.ClientID)
	assert.Equal(t, model.WorkflowStatusInitial, loaded.Status)
	assert.Nil(t, loaded.FinalResult)

	loaded.Status = model.WorkflowStatusInProgress
	assert.NoError(t, s.UpdateWorkflow(loaded))

	reloaded, err := s.GetWorkflowByID(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.WorkflowStatusInProgress, reloaded.Status)
}

func TestStore_GetWorkflowByID_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetWorkflowByID(uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStore_TasksOrderedByStepNumber(t *testing.T) {
	s := setupStore(t)

	wf := &model.Workflow{ClientID: "client-1", Status: model.WorkflowStatusInitial}
	assert.NoError(t, s.CreateWorkflow(wf))

	tasks := []*model.Task{
		{ClientID: "client-1", WorkflowID: wf.ID, TaskType: "notification", StepNumber: 3, Status: model.TaskStatusQueued},
		{ClientID: "client-1", WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusQueued},
		{ClientID: "client-1", WorkflowID: wf.ID, TaskType: "analysis", StepNumber: 2, Status: model.TaskStatusQueued},
	}
	assert.NoError(t, s.CreateTasks(tasks))

	listed, err := s.ListTasksByWorkflowID(wf.ID)
	assert.NoError(t, err)
	assert.Len(t, listed, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{listed[0].StepNumber, listed[1].StepNumber, listed[2].StepNumber})

	queued, err := s.ListTasksByStatus(model.TaskStatusQueued)
	assert.NoError(t, err)
	assert.Len(t, queued, 3)
	assert.Equal(t, 1, queued[0].StepNumber)
}

func TestStore_GetWorkflowWithTasks(t *testing.T) {
	s := setupStore(t)

	wf := &model.Workflow{ClientID: "client-1", Status: model.WorkflowStatusInitial}
	assert.NoError(t, s.CreateWorkflow(wf))
	assert.NoError(t, s.CreateTasks([]*model.Task{
		{ClientID: "client-1", WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusQueued},
		{ClientID: "client-1", WorkflowID: wf.ID, TaskType: "notification", StepNumber: 2, Status: model.TaskStatusQueued},
	}))

	loaded, err := s.GetWorkflowWithTasks(wf.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded.Tasks, 2)
	assert.Equal(t, "polygonArea", loaded.Tasks[0].TaskType)
}

func TestStore_ListTasksByWorkflowIDs(t *testing.T) {
	s := setupStore(t)

	wf1 := &model.Workflow{ClientID: "a", Status: model.WorkflowStatusInitial}
	wf2 := &model.Workflow{ClientID: "b", Status: model.WorkflowStatusInitial}
	assert.NoError(t, s.CreateWorkflow(wf1))
	assert.NoError(t, s.CreateWorkflow(wf2))
	assert.NoError(t, s.CreateTasks([]*model.Task{
		{WorkflowID: wf1.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusQueued},
		{WorkflowID: wf2.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusQueued},
	}))

	tasks, err := s.ListTasksByWorkflowIDs([]uuid.UUID{wf1.ID, wf2.ID})
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = s.ListTasksByWorkflowIDs(nil)
	assert.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_RequeueInProgressTasks(t *testing.T) {
	s := setupStore(t)

	wf := &model.Workflow{ClientID: "client-1", Status: model.WorkflowStatusInProgress}
	assert.NoError(t, s.CreateWorkflow(wf))

	progress := "starting job..."
	tasks := []*model.Task{
		{WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusInProgress, Progress: &progress},
		{WorkflowID: wf.ID, TaskType: "analysis", StepNumber: 2, Status: model.TaskStatusQueued},
		{WorkflowID: wf.ID, TaskType: "notification", StepNumber: 3, Status: model.TaskStatusCompleted},
	}
	assert.NoError(t, s.CreateTasks(tasks))

	requeued, err := s.RequeueInProgressTasks()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), requeued)

	listed, err := s.ListTasksByWorkflowID(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.TaskStatusQueued, listed[0].Status)
	assert.Nil(t, listed[0].Progress)
	assert.Equal(t, model.TaskStatusCompleted, listed[2].Status)
}

func TestStore_ResultRoundTrip(t *testing.T) {
	s := setupStore(t)

	wf := &model.Workflow{ClientID: "client-1", Status: model.WorkflowStatusInitial}
	assert.NoError(t, s.CreateWorkflow(wf))
	task := &model.Task{WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: model.TaskStatusQueued}
	assert.NoError(t, s.CreateTasks([]*model.Task{task}))

	result := &model.Result{TaskID: task.ID, Data: `{"area":42}`}
	assert.NoError(t, s.CreateResult(result))
	assert.NotEqual(t, uuid.Nil, result.ID)

	loaded, err := s.GetResultByID(result.ID)
	assert.NoError(t, err)
	assert.Equal(t, task.ID, loaded.TaskID)
	assert.Equal(t, `{"area":42}`, loaded.Data)
}
