package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// NotificationOutput is the serialized return value of the notification job.
type NotificationOutput struct {
	Delivered bool   `json:"delivered"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
}

// NotificationJob emits a log-based notification for the workflow. When the
// task has a dependency, its output arrives in task.Input and is included in
// the notification message.
type NotificationJob struct{}

func NewNotificationJob() *NotificationJob {
	return &NotificationJob{}
}

func (j *NotificationJob) Run(ctx context.Context, task *model.Task) (any, error) {
	message := fmt.Sprintf("workflow %s reached step %d", task.WorkflowID, task.StepNumber)
	if task.Input != nil {
		message = fmt.Sprintf("%s with upstream output %s", message, *task.Input)
	}

	slog.InfoContext(ctx, "notification dispatched",
		"taskID", task.ID,
		"workflowID", task.WorkflowID,
		"clientID", task.ClientID,
		"message", message,
	)

	output := NotificationOutput{
		Delivered: true,
		Channel:   "log",
		Message:   message,
	}
	if err := setOutput(task, output); err != nil {
		return nil, err
	}
	return output, nil
}
