package job

import (
	"context"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// Task type tags resolved through the registry.
const (
	TypePolygonArea      = "polygonArea"
	TypeAnalysis         = "analysis"
	TypeNotification     = "notification"
	TypeReportGeneration = "reportGeneration"
)

// Job is a unit of work bound to a task type. Run consumes a task and
// produces a serializable output value, or fails with an error.
//
// Jobs are permitted to mutate task.Output as a side channel; the runner
// persists the task after the job returns, so a structured error envelope
// written to task.Output before failing survives the failure.
type Job interface {
	Run(ctx context.Context, task *model.Task) (any, error)
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context, task *model.Task) (any, error)

func (f JobFunc) Run(ctx context.Context, task *model.Task) (any, error) {
	return f(ctx, task)
}
