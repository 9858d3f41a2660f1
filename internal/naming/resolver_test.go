package naming

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(base string) *Catalog {
	return NewCatalog(Dirs{
		Splines:     filepath.Join(base, "splines"),
		GenZones:    filepath.Join(base, "gz"),
		Tables:      filepath.Join(base, "csv"),
		Geometry:    filepath.Join(base, "mod"),
		PieceFolder: "/Game/Pipeline/Assets",
	})
}

func TestResolveIsDeterministic(t *testing.T) {
	cat := testCatalog("/data")
	r := NewResolver()

	first := r.Resolve(cat.Tables, 7)
	second := r.Resolve(cat.Tables, 7)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, filepath.Join("/data", "csv", "mesh_7.csv"), first[0])
	assert.Equal(t, filepath.Join("/data", "csv", "mat_7.csv"), first[1])
}

func TestResolveIterationsNeverCollide(t *testing.T) {
	cat := testCatalog("/data")
	r := NewResolver()

	seen := map[string]int{}
	for iter := 0; iter < 25; iter++ {
		for _, p := range r.Resolve(cat.GeometryBatch, iter) {
			prev, dup := seen[p]
			require.False(t, dup, "iterations %d and %d share path %s", prev, iter, p)
			seen[p] = iter
		}
	}
}

func TestDiscoverEmptyDirectory(t *testing.T) {
	cat := testCatalog(t.TempDir())
	r := NewResolver()

	got, err := r.Discover(cat.Tables, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	cat := testCatalog(filepath.Join(t.TempDir(), "never-created"))
	r := NewResolver()

	got, err := r.Discover(cat.SplineJSON, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscoverStrictIterationMatch(t *testing.T) {
	base := t.TempDir()
	cat := testCatalog(base)
	dir := cat.Tables.Dir
	require.NoError(t, os.MkdirAll(dir, 0755))

	for _, name := range []string{
		"mesh_1.csv", "mesh_10.csv", "mesh_21.csv", "mesh_01.csv",
		"mat_1.csv", "mat_12.csv",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("Name\n"), 0644))
	}

	r := NewResolver()
	got, err := r.Discover(cat.Tables, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "mesh_1.csv"),
		filepath.Join(dir, "mat_1.csv"),
	}, got)
}

func TestDiscoverCaseInsensitiveStem(t *testing.T) {
	base := t.TempDir()
	cat := testCatalog(base)
	dir := cat.GenZoneMesh.Dir
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sm_GENZONES_pcg_hd_4.FBX"), nil, 0644))

	r := NewResolver()
	got, err := r.Discover(cat.GenZoneMesh, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestDiscoverPiecesSortedByIndex(t *testing.T) {
	cat := testCatalog("/data")
	assets := ListerFunc(func(dir string) ([]string, error) {
		return []string{
			"road_5_piece_2",
			"sidewalks_5_piece_10",
			"sidewalks_5_piece_2",
			"sidewalks_5_piece_1",
			"sidewalks_50_piece_1",
			"road_5_piece_1",
			"unrelated_asset",
		}, nil
	})

	r := NewResolver().WithAssetLister(assets)
	got, err := r.Discover(cat.Pieces, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/Game/Pipeline/Assets/sidewalks_5_piece_1",
		"/Game/Pipeline/Assets/sidewalks_5_piece_2",
		"/Game/Pipeline/Assets/sidewalks_5_piece_10",
		"/Game/Pipeline/Assets/road_5_piece_1",
		"/Game/Pipeline/Assets/road_5_piece_2",
	}, got)
}

func TestResolvePiece(t *testing.T) {
	cat := testCatalog("/data")
	r := NewResolver()
	assert.Equal(t, "/Game/Pipeline/Assets/road_3_piece_7",
		r.ResolvePiece(cat.Pieces, "road", 3, 7))
}

func TestMatchNameRejectsPieceOnPlainCategory(t *testing.T) {
	_, ok := matchName("mesh_2_piece_1.csv", "mesh", 2, ".csv", false)
	assert.False(t, ok)
}

func TestMatchNameRejectsPlainNameOnPiecesCategory(t *testing.T) {
	_, ok := matchName("sidewalks_3", "sidewalks", 3, "", true)
	assert.False(t, ok)
}
