package dto

// RowError describes why a single import row was rejected.
// Line 0 marks a job-level error that stopped every row.
type RowError struct {
	Line  int    `json:"line"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

// RowDetail records an accepted import row.
type RowDetail struct {
	Line   int    `json:"line"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Job states reported by JobResult.Status.
const (
	JobQueued    = "queued"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobResult is the polled outcome of a bulk user import. A queued result
// carries no rows yet.
type JobResult struct {
	TaskID  string      `json:"task_id"`
	Status  string      `json:"status"`
	Total   int         `json:"total"`
	Success int         `json:"success"`
	Errors  []RowError  `json:"errors"`
	Details []RowDetail `json:"details"`
}

// JobAccepted is returned when a job has been queued.
type JobAccepted struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}
