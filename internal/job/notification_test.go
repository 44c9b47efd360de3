package job

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

func TestNotificationJob_Run(t *testing.T) {
	j := NewNotificationJob()
	task := &model.Task{
		WorkflowID: uuid.New(),
		TaskType:   TypeNotification,
		StepNumber: 3,
	}

	value, err := j.Run(context.Background(), task)
	assert.NoError(t, err)

	output, ok := value.(NotificationOutput)
	if assert.True(t, ok) {
		assert.True(t, output.Delivered)
		assert.Equal(t, "log", output.Channel)
		assert.Contains(t, output.Message, "step 3")
	}
	assert.NotNil(t, task.Output)
}

func TestNotificationJob_Run_IncludesUpstreamOutput(t *testing.T) {
	j := NewNotificationJob()
	input := `{"area":123.4,"unit":"square meters"}`
	task := &model.Task{
		WorkflowID: uuid.New(),
		TaskType:   TypeNotification,
		StepNumber: 2,
		Input:      &input,
	}

	value, err := j.Run(context.Background(), task)
	assert.NoError(t, err)

	output := value.(NotificationOutput)
	assert.Contains(t, output.Message, input)
}
