package model

import "github.com/google/uuid"

// TaskStatus represents the status of a task within a workflow.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"      // Task is waiting to be picked up by the dispatcher
	TaskStatusInProgress TaskStatus = "in_progress" // Task is currently being executed by the runner
	TaskStatusCompleted  TaskStatus = "completed"   // Task finished and produced a result
	TaskStatusFailed     TaskStatus = "failed"      // Task finished with an error
)

// IsTerminal reports whether the status is one a task never leaves.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents a single unit of work inside a workflow.
//
// StepNumber defines the intended service order within the workflow.
// DependsOnID optionally links to an earlier task in the same workflow and is
// the only mechanism that threads a dependency's output into this task's
// input. The dependency is referenced by ID and hydrated explicitly to keep
// the entity graph acyclic.
type Task struct {
	BaseModel
	ClientID    string     `gorm:"type:varchar(255);column:client_id;not null" json:"clientId"`
	WorkflowID  uuid.UUID  `gorm:"type:uuid;column:workflow_id;index;not null" json:"workflowId"`
	TaskType    string     `gorm:"type:varchar(100);column:task_type;not null" json:"taskType"`
	StepNumber  int        `gorm:"column:step_number;not null" json:"stepNumber"`
	Status      TaskStatus `gorm:"type:varchar(20);column:status;index;not null" json:"status"`
	DependsOnID *uuid.UUID `gorm:"type:uuid;column:depends_on_id" json:"dependsOnId,omitempty"`
	GeoJSON     string     `gorm:"type:text;column:geo_json;not null" json:"geoJson"`    // Original client payload, opaque to the engine
	Input       *string    `gorm:"type:text;column:input" json:"input,omitempty"`        // Copied from the dependency's output at dispatch time
	Output      *string    `gorm:"type:text;column:output" json:"output,omitempty"`      // Serialized job return value or error envelope
	Progress    *string    `gorm:"type:text;column:progress" json:"progress,omitempty"`  // Free-form status text while in progress
	ResultID    *uuid.UUID `gorm:"type:uuid;column:result_id" json:"resultId,omitempty"` // Set iff the task completed
}

func (t *Task) TableName() string {
	return "tasks"
}
