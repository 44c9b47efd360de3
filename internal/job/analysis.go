package job

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// AnalysisOutput is the serialized return value of the analysis job.
type AnalysisOutput struct {
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// countryBound is one entry in the coarse country lookup table.
type countryBound struct {
	name  string
	bound orb.Bound
}

// Coarse lon/lat bounding boxes. Good enough to resolve a geometry's
// centroid to a country for reporting purposes.
var countryBounds = []countryBound{
	{"Sri Lanka", orb.Bound{Min: orb.Point{79.5, 5.9}, Max: orb.Point{81.9, 9.9}}},
	{"India", orb.Bound{Min: orb.Point{68.1, 6.5}, Max: orb.Point{97.4, 35.7}}},
	{"United States", orb.Bound{Min: orb.Point{-125.0, 24.4}, Max: orb.Point{-66.9, 49.4}}},
	{"Germany", orb.Bound{Min: orb.Point{5.9, 47.3}, Max: orb.Point{15.0, 55.1}}},
	{"France", orb.Bound{Min: orb.Point{-5.1, 41.3}, Max: orb.Point{9.6, 51.1}}},
	{"United Kingdom", orb.Bound{Min: orb.Point{-8.6, 49.9}, Max: orb.Point{1.8, 60.9}}},
	{"Brazil", orb.Bound{Min: orb.Point{-73.9, -33.8}, Max: orb.Point{-34.8, 5.3}}},
	{"Australia", orb.Bound{Min: orb.Point{112.9, -43.7}, Max: orb.Point{153.6, -10.6}}},
	{"Japan", orb.Bound{Min: orb.Point{129.4, 31.0}, Max: orb.Point{145.8, 45.6}}},
	{"Kenya", orb.Bound{Min: orb.Point{33.9, -4.7}, Max: orb.Point{41.9, 5.5}}},
}

// AnalysisJob resolves the centroid of the task's geometry against the
// country lookup table.
type AnalysisJob struct{}

func NewAnalysisJob() *AnalysisJob {
	return &AnalysisJob{}
}

func (j *AnalysisJob) Run(ctx context.Context, task *model.Task) (any, error) {
	geom, err := parseGeometry(task.GeoJSON)
	if err != nil {
		setErrorEnvelope(task, err.Error())
		return nil, err
	}

	centroid, _ := planar.CentroidArea(geom)

	country, found := lookupCountry(centroid)
	if !found {
		err := fmt.Errorf("no country matched centroid (%f, %f)", centroid.Lon(), centroid.Lat())
		setErrorEnvelope(task, err.Error())
		return nil, err
	}

	output := AnalysisOutput{
		Country:   country,
		Latitude:  centroid.Lat(),
		Longitude: centroid.Lon(),
	}
	if err := setOutput(task, output); err != nil {
		return nil, err
	}
	return output, nil
}

func lookupCountry(point orb.Point) (string, bool) {
	for _, c := range countryBounds {
		if c.bound.Contains(point) {
			return c.name, true
		}
	}
	return "", false
}
