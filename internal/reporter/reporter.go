// Package reporter accumulates per-step results for one run and projects
// them to the structured log as they arrive. It is the single writer of the
// run summary; the TUI and the CLI read snapshots of it while the run is
// still in flight.
package reporter

import (
	"log/slog"
	"sync"

	"github.com/lcroisez/undini/internal/models"
)

type Reporter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	summary models.RunSummary
	aborted bool
}

func New(run *models.Run, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger: logger,
		summary: models.RunSummary{
			RunID:     run.ID,
			Iteration: run.Iteration,
			Variant:   run.Variant,
			Status:    models.RunStatusRunning,
		},
	}
}

// Record appends one step result, preserving execution order, and logs it.
func (r *Reporter) Record(res *models.StepResult) {
	r.mu.Lock()
	r.summary.Results = append(r.summary.Results, res)
	r.mu.Unlock()

	attrs := []any{
		"run", r.summary.RunID,
		"step", res.StepName,
		"seq", res.SequenceNum,
		"elapsed", res.Elapsed,
	}
	switch res.Status {
	case models.StepStatusSucceeded:
		r.logger.Info("step succeeded", append(attrs, "artifacts", len(res.Artifacts))...)
	case models.StepStatusWarned:
		r.logger.Warn("step completed with warnings", append(attrs, "detail", res.Diagnostic)...)
	case models.StepStatusSkipped:
		r.logger.Info("step skipped", append(attrs, "reason", res.Diagnostic)...)
	case models.StepStatusFailed:
		r.logger.Error("step failed", append(attrs, "error", res.Diagnostic)...)
	default:
		r.logger.Info("step finished", append(attrs, "status", string(res.Status))...)
	}
}

// Snapshot returns a copy safe to read while the run keeps going. The
// results themselves are immutable once recorded, so sharing the pointers
// is fine; only the slice and summary header are copied.
func (r *Reporter) Snapshot() *models.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.summary
	out.Results = make([]*models.StepResult, len(r.summary.Results))
	copy(out.Results, r.summary.Results)
	return &out
}

// Abort marks the run as externally cancelled. Finalize then reports it
// halted no matter how the steps that did run came out, so a run cut short
// before recording any failure never reads as a success.
func (r *Reporter) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
}

// Finalize computes the run's terminal status from the worst step outcome:
// an abort or any failure halts the run, warnings degrade it, and a run
// where every step was skipped also counts as degraded since nothing was
// produced.
func (r *Reporter) Finalize() models.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	succeeded, warned, failed, skipped := r.summary.Counts()
	switch {
	case r.aborted || failed > 0:
		r.summary.Status = models.RunStatusHalted
	case warned > 0:
		r.summary.Status = models.RunStatusWarned
	case succeeded == 0 && skipped > 0:
		r.summary.Status = models.RunStatusWarned
	default:
		r.summary.Status = models.RunStatusSuccess
	}

	r.logger.Info("run finished",
		"run", r.summary.RunID,
		"status", string(r.summary.Status),
		"succeeded", succeeded, "warned", warned,
		"failed", failed, "skipped", skipped)
	return r.summary.Status
}
