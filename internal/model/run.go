package model

import "time"

// RunStatus is the lifecycle state of a standardization run or of one field
// within it.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	// RunStatusPartial marks a run where at least one field failed.
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one invocation of the standardize command.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Fields    []string  `json:"fields"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FieldRun records the outcome of one field pipeline inside a run.
type FieldRun struct {
	ID         string            `json:"id"`
	RunID      string            `json:"run_id"`
	Field      string            `json:"field"`
	Status     RunStatus         `json:"status"`
	Entries    int               `json:"entries"`
	Matched    int               `json:"matched"`
	Unmatched  int               `json:"unmatched"`
	Incomplete int               `json:"incomplete"`
	Notes      int               `json:"notes"`
	Tiers      map[MatchTier]int `json:"tiers,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	CreatedAt  time.Time         `json:"created_at"`
}

// UnmatchedValue is one row of a field's frequency table persisted with the run.
type UnmatchedValue struct {
	RunID    string    `json:"run_id"`
	Field    string    `json:"field"`
	RawValue string    `json:"raw_value"`
	Issue    IssueType `json:"issue_type"`
	Mentions int       `json:"mentions"`
	Records  int       `json:"records"`
}
