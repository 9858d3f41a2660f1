package models

import "time"

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	// Terminal statuses. The worst step outcome decides which one applies.
	RunStatusSuccess RunStatus = "all-success"
	RunStatusWarned  RunStatus = "completed-with-warnings"
	RunStatusHalted  RunStatus = "halted-on-failure"
)

func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusWarned, RunStatusHalted:
		return true
	}
	return false
}

// Run is one orchestrator invocation: a single workflow variant executed
// against a single iteration number.
type Run struct {
	ID          int64
	CreatedAt   time.Time
	CompletedAt *time.Time
	Iteration   int
	Variant     string
	ScriptPath  string // set when the variant came from a Lua script
	Status      RunStatus
	CurrentStep string
	Error       string
}
