package job

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// AreaOutput is the serialized return value of the polygonArea job.
type AreaOutput struct {
	Area float64 `json:"area"`
	Unit string  `json:"unit"`
}

// PolygonAreaJob computes the geodesic area of the polygon in the task's
// GeoJSON payload.
type PolygonAreaJob struct{}

func NewPolygonAreaJob() *PolygonAreaJob {
	return &PolygonAreaJob{}
}

func (j *PolygonAreaJob) Run(ctx context.Context, task *model.Task) (any, error) {
	geom, err := parseGeometry(task.GeoJSON)
	if err != nil {
		setErrorEnvelope(task, err.Error())
		return nil, err
	}

	switch geom.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		err := fmt.Errorf("geometry type %s is not polygonal", geom.GeoJSONType())
		setErrorEnvelope(task, err.Error())
		return nil, err
	}

	output := AreaOutput{
		Area: math.Abs(geo.Area(geom)),
		Unit: "square meters",
	}
	if err := setOutput(task, output); err != nil {
		return nil, err
	}
	return output, nil
}
