package models

import "time"

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusWarned    StepStatus = "warned"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult is the immutable outcome of one step invocation for one
// iteration. It is created by the orchestrator right after the step
// executes and handed to the reporter; nothing mutates it afterwards.
type StepResult struct {
	ID          int64
	RunID       int64
	SequenceNum int
	StepName    string
	Status      StepStatus
	// Artifacts lists the produced paths (or asset ids) actually observed
	// after the step ran, not the paths the step claimed to write.
	Artifacts  []string
	Diagnostic string
	StartedAt  *time.Time
	Elapsed    time.Duration
}
