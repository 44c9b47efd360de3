package job

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
)

// parseGeometry extracts an orb geometry from a raw GeoJSON document.
// Accepts a Feature, a FeatureCollection (first feature wins) or a bare
// geometry.
func parseGeometry(raw string) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON document: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid FeatureCollection: %w", err)
		}
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("FeatureCollection contains no features")
		}
		// RFC 7946 allows "geometry": null; orb surfaces that as a nil
		// geometry without an unmarshal error.
		if fc.Features[0].Geometry == nil {
			return nil, fmt.Errorf("feature has no geometry")
		}
		return fc.Features[0].Geometry, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid Feature: %w", err)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("feature has no geometry")
		}
		return f.Geometry, nil
	case "":
		return nil, fmt.Errorf("GeoJSON document has no type")
	default:
		g, err := geojson.UnmarshalGeometry([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid geometry: %w", err)
		}
		return g.Geometry(), nil
	}
}

// setOutput serializes value and records it in task.Output.
func setOutput(task *model.Task, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize job output: %w", err)
	}
	out := string(data)
	task.Output = &out
	return nil
}

// setErrorEnvelope records a structured error envelope in task.Output so a
// failed task carries a machine-readable reason.
func setErrorEnvelope(task *model.Task, message string) {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return
	}
	out := string(data)
	task.Output = &out
}
