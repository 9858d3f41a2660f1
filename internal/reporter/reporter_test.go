package reporter

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroisez/undini/internal/models"
)

func newTestReporter() *Reporter {
	run := &models.Run{ID: 42, Iteration: 3, Variant: "full"}
	return New(run, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func result(seq int, name string, status models.StepStatus) *models.StepResult {
	return &models.StepResult{RunID: 42, SequenceNum: seq, StepName: name, Status: status}
}

func TestRecordPreservesOrder(t *testing.T) {
	r := newTestReporter()
	r.Record(result(1, "export-splines", models.StepStatusSucceeded))
	r.Record(result(2, "export-genzones", models.StepStatusSkipped))
	r.Record(result(3, "generate-buildings", models.StepStatusSucceeded))

	snap := r.Snapshot()
	require.Len(t, snap.Results, 3)
	assert.Equal(t, "export-genzones", snap.Results[1].StepName)
	assert.Equal(t, models.RunStatusRunning, snap.Status)
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := newTestReporter()
	r.Record(result(1, "export-splines", models.StepStatusSucceeded))

	snap := r.Snapshot()
	r.Record(result(2, "export-genzones", models.StepStatusFailed))
	assert.Len(t, snap.Results, 1)
}

func TestFinalizeWorstOf(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.StepStatus
		want     models.RunStatus
	}{
		{"all success", []models.StepStatus{models.StepStatusSucceeded, models.StepStatusSucceeded}, models.RunStatusSuccess},
		{"warning degrades", []models.StepStatus{models.StepStatusSucceeded, models.StepStatusWarned}, models.RunStatusWarned},
		{"failure halts", []models.StepStatus{models.StepStatusWarned, models.StepStatusFailed}, models.RunStatusHalted},
		{"skips alongside successes are fine", []models.StepStatus{models.StepStatusSkipped, models.StepStatusSucceeded}, models.RunStatusSuccess},
		{"nothing ran at all", []models.StepStatus{models.StepStatusSkipped, models.StepStatusSkipped}, models.RunStatusWarned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestReporter()
			for i, st := range tc.statuses {
				r.Record(result(i+1, "step", st))
			}
			assert.Equal(t, tc.want, r.Finalize())
			assert.Equal(t, tc.want, r.Snapshot().Status)
		})
	}
}

func TestFinalizeAfterAbortHalts(t *testing.T) {
	// A cancelled run may have recorded only clean results, or none at all;
	// neither may finalize as a success.
	r := newTestReporter()
	r.Abort()
	assert.Equal(t, models.RunStatusHalted, r.Finalize())

	r = newTestReporter()
	r.Record(result(1, "export-splines", models.StepStatusSucceeded))
	r.Abort()
	assert.Equal(t, models.RunStatusHalted, r.Finalize())
}
