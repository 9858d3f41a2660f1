package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Rotation struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// SplinePoint is one control point of an exported spline component.
// Scale and PointType are carried when the editor provides them; consumers
// must tolerate their absence, along with any fields they don't know.
type SplinePoint struct {
	Index     int      `json:"index"`
	Location  Vec3     `json:"location"`
	Tangent   Vec3     `json:"tangent"`
	Rotation  Rotation `json:"rotation"`
	Scale     *Vec3    `json:"scale,omitempty"`
	PointType string   `json:"point_type,omitempty"`
}

// SplineRecord describes one spline component of one source actor. The
// spline description file is a JSON array of these, one per component.
type SplineRecord struct {
	ActorName      string        `json:"actor_name"`
	ActorLocation  Vec3          `json:"actor_location"`
	ComponentName  string        `json:"component_name"`
	ComponentIndex int           `json:"component_index"`
	Points         []SplinePoint `json:"points"`
}

func WriteSplines(path string, records []SplineRecord) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding spline export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing spline export: %w", err)
	}
	return nil
}

func ReadSplines(path string) ([]SplineRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []SplineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing spline export %s: %w", path, err)
	}
	return records, nil
}

// ActorTransform is one placed actor's transform in the transforms.json
// sidecar written next to the exported mesh set.
type ActorTransform struct {
	ActorName string `json:"actor_name"`
	MeshName  string `json:"mesh_name"`
	Transform struct {
		Location Vec3     `json:"location"`
		Rotation Rotation `json:"rotation"`
		Scale    Vec3     `json:"scale"`
	} `json:"transform"`
}

type TransformSidecar struct {
	Actors []ActorTransform `json:"actors"`
}

func WriteTransforms(path string, sidecar *TransformSidecar) error {
	data, err := json.MarshalIndent(sidecar, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding transforms: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing transforms: %w", err)
	}
	return nil
}
