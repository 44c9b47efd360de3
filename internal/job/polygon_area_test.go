package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// Roughly 0.1 x 0.1 degrees near Colombo.
const colomboSquare = `{"type":"Polygon","coordinates":[[[79.85,6.90],[79.95,6.90],[79.95,7.00],[79.85,7.00],[79.85,6.90]]]}`

func TestPolygonAreaJob_Run(t *testing.T) {
	j := NewPolygonAreaJob()
	task := &model.Task{TaskType: TypePolygonArea, StepNumber: 1, GeoJSON: colomboSquare}

	value, err := j.Run(context.Background(), task)
	assert.NoError(t, err)

	output, ok := value.(AreaOutput)
	if assert.True(t, ok) {
		// A 0.1 degree square at this latitude is on the order of 1.2e8 m2.
		assert.InDelta(t, 1.22e8, output.Area, 0.2e8)
		assert.Equal(t, "square meters", output.Unit)
	}
	assert.NotNil(t, task.Output)
	assert.Contains(t, *task.Output, `"area"`)
}

func TestPolygonAreaJob_Run_FeatureWrapper(t *testing.T) {
	j := NewPolygonAreaJob()
	task := &model.Task{
		TaskType: TypePolygonArea,
		GeoJSON:  `{"type":"Feature","properties":{},"geometry":` + colomboSquare + `}`,
	}

	value, err := j.Run(context.Background(), task)
	assert.NoError(t, err)
	assert.IsType(t, AreaOutput{}, value)
}

func TestPolygonAreaJob_Run_RejectsNonPolygon(t *testing.T) {
	j := NewPolygonAreaJob()
	task := &model.Task{
		TaskType: TypePolygonArea,
		GeoJSON:  `{"type":"Point","coordinates":[79.9,6.95]}`,
	}

	_, err := j.Run(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not polygonal")
	if assert.NotNil(t, task.Output) {
		assert.Contains(t, *task.Output, `"error"`)
	}
}

func TestPolygonAreaJob_Run_NullGeometryFeature(t *testing.T) {
	j := NewPolygonAreaJob()
	task := &model.Task{
		TaskType: TypePolygonArea,
		GeoJSON:  `{"type":"Feature","properties":{},"geometry":null}`,
	}

	// Must fail as a normal job error, not take down the dispatcher.
	assert.NotPanics(t, func() {
		_, err := j.Run(context.Background(), task)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no geometry")
	})
	if assert.NotNil(t, task.Output) {
		assert.Contains(t, *task.Output, `"error"`)
	}
}

func TestPolygonAreaJob_Run_InvalidGeoJSON(t *testing.T) {
	j := NewPolygonAreaJob()
	task := &model.Task{TaskType: TypePolygonArea, GeoJSON: `not json`}

	_, err := j.Run(context.Background(), task)
	assert.Error(t, err)
	assert.NotNil(t, task.Output)
}
