package store

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// Store handles database operations for workflows, tasks and results.
//
// Mutation of each row is confined to a single component (factory, runner or
// reconciler), so no multi-row transactions are needed; GORM guarantees that
// a read following a returned write observes it.
type Store struct {
	db *gorm.DB
}

// New creates a Store on an existing database connection and migrates the
// workflow schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&model.Workflow{}, &model.Task{}, &model.Result{}); err != nil {
		return nil, fmt.Errorf("failed to migrate workflow schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewInMemory creates a Store backed by an in-memory SQLite database (useful for testing)
func NewInMemory() (*Store, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return New(db)
}

// CreateWorkflow inserts a new workflow row
func (s *Store) CreateWorkflow(workflow *model.Workflow) error {
	return s.db.Create(workflow).Error
}

// GetWorkflowByID retrieves a workflow by its ID
func (s *Store) GetWorkflowByID(id uuid.UUID) (*model.Workflow, error) {
	var workflow model.Workflow
	if err := s.db.First(&workflow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &workflow, nil
}

// GetWorkflowWithTasks retrieves a workflow with its tasks hydrated,
// ordered by step number.
func (s *Store) GetWorkflowWithTasks(id uuid.UUID) (*model.Workflow, error) {
	workflow, err := s.GetWorkflowByID(id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasksByWorkflowID(id)
	if err != nil {
		return nil, err
	}
	workflow.Tasks = tasks
	return workflow, nil
}

// UpdateWorkflow persists changes to a workflow row
func (s *Store) UpdateWorkflow(workflow *model.Workflow) error {
	return s.db.Save(workflow).Error
}

// CreateTasks inserts task rows in a single batch
func (s *Store) CreateTasks(tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return s.db.Create(tasks).Error
}

// GetTaskByID retrieves a task by its ID
func (s *Store) GetTaskByID(id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := s.db.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask persists changes to a task row
func (s *Store) UpdateTask(task *model.Task) error {
	return s.db.Save(task).Error
}

// ListTasksByStatus retrieves all tasks in the given status, ordered by step number
func (s *Store) ListTasksByStatus(status model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.Where("status = ?", status).Order("step_number asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksByWorkflowID retrieves all tasks belonging to a workflow, ordered by step number
func (s *Store) ListTasksByWorkflowID(workflowID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.Where("workflow_id = ?", workflowID).Order("step_number asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksByWorkflowIDs retrieves all tasks belonging to any of the given workflows
func (s *Store) ListTasksByWorkflowIDs(workflowIDs []uuid.UUID) ([]model.Task, error) {
	if len(workflowIDs) == 0 {
		return []model.Task{}, nil
	}
	var tasks []model.Task
	if err := s.db.Where("workflow_id IN ?", workflowIDs).Order("step_number asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// RequeueInProgressTasks resets every in_progress task back to queued.
// Called once at startup to recover tasks orphaned by a previous process.
func (s *Store) RequeueInProgressTasks() (int64, error) {
	res := s.db.Model(&model.Task{}).
		Where("status = ?", model.TaskStatusInProgress).
		Updates(map[string]interface{}{"status": model.TaskStatusQueued, "progress": nil})
	return res.RowsAffected, res.Error
}

// CreateResult inserts a new result row
func (s *Store) CreateResult(result *model.Result) error {
	return s.db.Create(result).Error
}

// GetResultByID retrieves a result by its ID
func (s *Store) GetResultByID(id uuid.UUID) (*model.Result, error) {
	var result model.Result
	if err := s.db.First(&result, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
