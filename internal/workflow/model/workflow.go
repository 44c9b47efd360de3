package model

// WorkflowStatus represents the aggregate status of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusInitial    WorkflowStatus = "initial"     // Created, no task has started yet
	WorkflowStatusInProgress WorkflowStatus = "in_progress" // At least one task has left the queue
	WorkflowStatusCompleted  WorkflowStatus = "completed"   // Every task completed
	WorkflowStatusFailed     WorkflowStatus = "failed"      // At least one task failed
)

// IsTerminal reports whether the status is one a workflow never leaves.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// Workflow represents one instantiated run of a workflow definition.
// Tasks reference their workflow by ID; the slice here is hydrated on demand
// by the store rather than kept as an owning bidirectional link.
type Workflow struct {
	BaseModel
	ClientID    string         `gorm:"type:varchar(255);column:client_id;not null" json:"clientId"` // Opaque caller tag, copied onto every task
	Status      WorkflowStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	FinalResult *string        `gorm:"type:text;column:final_result" json:"finalResult,omitempty"` // Serialized aggregate, set once on the first terminal transition

	Tasks []Task `gorm:"-" json:"tasks,omitempty"`
}

func (w *Workflow) TableName() string {
	return "workflows"
}
