package models

// RunSummary is the ordered sequence of step results for one run. The
// reporter exposes it while the run is still going, so Status stays
// RunStatusRunning until Finalize computes the terminal value.
type RunSummary struct {
	RunID     int64
	Iteration int
	Variant   string
	Results   []*StepResult
	Status    RunStatus
}

// Counts tallies results by status.
func (s *RunSummary) Counts() (succeeded, warned, failed, skipped int) {
	for _, r := range s.Results {
		switch r.Status {
		case StepStatusSucceeded:
			succeeded++
		case StepStatusWarned:
			warned++
		case StepStatusFailed:
			failed++
		case StepStatusSkipped:
			skipped++
		}
	}
	return
}
