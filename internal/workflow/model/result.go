package model

import "github.com/google/uuid"

// Result holds the serialized output of a successfully completed task.
type Result struct {
	BaseModel
	TaskID uuid.UUID `gorm:"type:uuid;column:task_id;index;not null" json:"taskId"`
	Data   string    `gorm:"type:text;column:data;not null" json:"data"`
}

func (r *Result) TableName() string {
	return "results"
}
