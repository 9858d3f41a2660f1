package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplinesRoundTripToleratesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splines_export_from_UE_2.json")

	raw := `[
		{
			"actor_name": "BP_CityKit_spline_main",
			"actor_location": {"x": 1, "y": 2, "z": 3},
			"component_name": "SplineComponent0",
			"component_index": 0,
			"points": [
				{
					"index": 0,
					"location": {"x": 0, "y": 0, "z": 0},
					"tangent": {"x": 100, "y": 0, "z": 0},
					"rotation": {"roll": 0, "pitch": 0, "yaw": 90},
					"future_field": "ignored"
				}
			],
			"editor_build": "5.3.2"
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	records, err := ReadSplines(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BP_CityKit_spline_main", records[0].ActorName)
	require.Len(t, records[0].Points, 1)
	assert.Equal(t, 90.0, records[0].Points[0].Rotation.Yaw)
	assert.Nil(t, records[0].Points[0].Scale, "scale is optional")
}

func TestWriteSplines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splines_export_from_UE_0.json")
	records := []SplineRecord{
		{
			ActorName:     "BP_CityKit_spline_1",
			ComponentName: "SplineComponent0",
			Points: []SplinePoint{
				{Index: 0, Location: Vec3{X: 1}, Tangent: Vec3{Y: 1}, PointType: "Curve"},
			},
		},
	}
	require.NoError(t, WriteSplines(path, records))

	back, err := ReadSplines(path)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestReadTableKeyedByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh_1.csv")
	csv := "Name,MeshPath,Material\nbld_a,/meshes/bld_a,brick\nbld_b,/meshes/bld_b,glass\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"bld_a", "bld_b"}, table.Names)

	row, ok := table.Row("bld_b")
	require.True(t, ok)
	assert.Equal(t, []string{"/meshes/bld_b", "glass"}, row)

	_, ok = table.Row("missing")
	assert.False(t, ok)
}

func TestReadTableRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mat_1.csv")
	csv := "Name,Diffuse,Roughness\nshort_row,gray\nlong_row,red,0.4,extra\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	table, err := ReadTable(path)
	require.NoError(t, err)

	row, ok := table.Row("short_row")
	require.True(t, ok)
	assert.Equal(t, []string{"gray", ""}, row)

	row, ok = table.Row("long_row")
	require.True(t, ok)
	assert.Equal(t, []string{"red", "0.4"}, row)
}

func TestReadTableNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh_9.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := ReadTable(path)
	assert.Error(t, err)
}
