package models

import "time"

type RunStatus string

const (
	StartedRunStatus   RunStatus = "STARTED"
	CompletedRunStatus RunStatus = "COMPLETED"
	FailedRunStatus    RunStatus = "FAILED"
)

// RunRecord tracks a single EPP script invocation for auditing.
type RunRecord struct {
	ID         string     `json:"id" db:"id"`                             // UUID assigned when the run starts
	Script     string     `json:"script" db:"script"`                     // Program and arguments that ran
	LogFile    string     `json:"log_file" db:"log_file"`                 // Run log the output was redirected to
	Status     RunStatus  `json:"status" db:"status"`                     // "STARTED", "COMPLETED", "FAILED"
	ErrorMsg   string     `json:"error,omitempty" db:"error_msg"`         // Failure detail (optional)
	StartedAt  time.Time  `json:"started_at" db:"started_at"`             // When the run began
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"` // Nullable completion time
}
