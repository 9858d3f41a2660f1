package editor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteSplineActors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/level/splines", r.URL.Path)
		require.Equal(t, "BP_CityKit_spline", r.URL.Query().Get("marker"))
		json.NewEncoder(w).Encode([]SplineActor{{Label: "BP_CityKit_spline_2"}})
	}))
	defer srv.Close()

	actors, err := NewRemote(srv.URL).SplineActors(context.Background(), "BP_CityKit_spline")
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.Equal(t, "BP_CityKit_spline_2", actors[0].Label)
}

func TestRemoteRunImportTask(t *testing.T) {
	var got ImportTask
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/import/task", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	task := ImportTask{SourceFile: "/out/mesh_3.csv", DestFolder: "/Game/CSV", AssetName: "mesh_3"}
	require.NoError(t, NewRemote(srv.URL).RunImportTask(context.Background(), task))
	assert.Equal(t, task, got)
}

func TestRemoteErrorCarriesBridgeMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "factory rejected file", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewRemote(srv.URL).ReimportAsset(context.Background(), "/Game/CSV/mesh_3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factory rejected file")
}

func TestRemoteAssetExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"exists": r.URL.Query().Get("path") == "/Game/A"})
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL)
	ok, err := remote.AssetExists(context.Background(), "/Game/A")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = remote.AssetExists(context.Background(), "/Game/B")
	require.NoError(t, err)
	assert.False(t, ok)
}
