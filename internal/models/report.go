package models

// Report records that an account was flagged for a stated reason.
// Rows are append-only; there is no lifecycle beyond creation.
type Report struct {
	ID     int64
	UserID int64 // the reported (target) account
	Reason string
}

// ReportRequest is the JSON body for POST /api/users/report. The reporter
// is identified but not persisted; only the target and reason are stored.
type ReportRequest struct {
	ReporterID *int64 `json:"reporter_id"`
	TargetID   *int64 `json:"target_id"`
	Reason     string `json:"reason"`
}
