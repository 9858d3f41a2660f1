package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroisez/undini/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.CreateRun(&models.Run{
		Iteration: 4, Variant: "full", Status: models.RunStatusPending,
	})
	require.NoError(t, err)

	run, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Iteration)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Nil(t, run.CompletedAt)

	now := time.Now()
	run.Status = models.RunStatusHalted
	run.CompletedAt = &now
	run.CurrentStep = "generate-buildings"
	run.Error = "engine cook exited 1"
	require.NoError(t, s.UpdateRun(run))

	got, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusHalted, got.Status)
	assert.Equal(t, "generate-buildings", got.CurrentStep)
	assert.Equal(t, "engine cook exited 1", got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	for i := 1; i <= 3; i++ {
		_, err := s.CreateRun(&models.Run{Iteration: i, Variant: "buildings", Status: models.RunStatusPending})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 3, runs[0].Iteration)
	assert.Equal(t, 2, runs[1].Iteration)
}

func TestStepResultsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	runID, err := s.CreateRun(&models.Run{Iteration: 1, Variant: "full", Status: models.RunStatusRunning})
	require.NoError(t, err)

	started := time.Now().Truncate(time.Second)
	_, err = s.CreateStepResult(&models.StepResult{
		RunID: runID, SequenceNum: 1, StepName: "export-splines",
		Status:    models.StepStatusSucceeded,
		Artifacts: []string{"/data/splines_export_from_UE_1.json"},
		StartedAt: &started, Elapsed: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = s.CreateStepResult(&models.StepResult{
		RunID: runID, SequenceNum: 2, StepName: "export-genzones",
		Status: models.StepStatusSkipped, Diagnostic: "no meshes in level",
	})
	require.NoError(t, err)

	results, err := s.GetStepResultsForRun(runID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"/data/splines_export_from_UE_1.json"}, results[0].Artifacts)
	assert.Equal(t, 1500*time.Millisecond, results[0].Elapsed)
	assert.Empty(t, results[1].Artifacts)
	assert.Equal(t, "no meshes in level", results[1].Diagnostic)
}

func TestStepResultUpsertOnRerun(t *testing.T) {
	s := newTestStorage(t)
	runID, err := s.CreateRun(&models.Run{Iteration: 1, Variant: "full", Status: models.RunStatusRunning})
	require.NoError(t, err)

	res := &models.StepResult{RunID: runID, SequenceNum: 1, StepName: "export-splines", Status: models.StepStatusFailed}
	_, err = s.CreateStepResult(res)
	require.NoError(t, err)

	res.Status = models.StepStatusSucceeded
	_, err = s.CreateStepResult(res)
	require.NoError(t, err)

	results, err := s.GetStepResultsForRun(runID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.StepStatusSucceeded, results[0].Status)
}

func TestDeleteRunRemovesResults(t *testing.T) {
	s := newTestStorage(t)
	runID, err := s.CreateRun(&models.Run{Iteration: 1, Variant: "full", Status: models.RunStatusRunning})
	require.NoError(t, err)
	_, err = s.CreateStepResult(&models.StepResult{RunID: runID, SequenceNum: 1, StepName: "export-splines", Status: models.StepStatusSucceeded})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(runID))

	_, err = s.GetRun(runID)
	require.Error(t, err)
	results, err := s.GetStepResultsForRun(runID)
	require.NoError(t, err)
	assert.Empty(t, results)
}
