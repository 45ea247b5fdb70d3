package ipc

// StatusRequest asks for the daemon's current snapshot.
type StatusRequest struct{}

// StatusResponse reports scheduler and daemon state. Times travel as
// RFC 3339 strings; empty means unset.
type StatusResponse struct {
	Running       bool     `json:"running"`
	PID           int      `json:"pid"`
	CycleActive   bool     `json:"cycle_active"`
	Stitch        bool     `json:"stitch"`
	PollSeconds   int      `json:"poll_seconds"`
	NextRunAt     string   `json:"next_run_at,omitempty"`
	LastCycleID   string   `json:"last_cycle_id,omitempty"`
	LastState     string   `json:"last_state,omitempty"`
	LastOutcome   string   `json:"last_outcome,omitempty"`
	LastCommitted int      `json:"last_committed"`
	LastError     string   `json:"last_error,omitempty"`
	LastFinished  string   `json:"last_finished,omitempty"`
	Monitors      []string `json:"monitors,omitempty"`
	LedgerPath    string   `json:"ledger_path"`
	RunDBPath     string   `json:"run_db_path"`
	LockPath      string   `json:"lock_path"`
}

// RunNowRequest triggers an immediate cycle.
type RunNowRequest struct{}

// RunNowResponse reports whether the trigger was accepted.
type RunNowResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a shutdown request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ToggleStitchRequest flips stitch mode.
type ToggleStitchRequest struct{}

// ToggleStitchResponse carries the mode now in effect.
type ToggleStitchResponse struct {
	Stitch bool `json:"stitch"`
}

// HistoryRequest asks for recent run records.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// RunRecord is one recorded cycle.
type RunRecord struct {
	CycleID    string `json:"cycle_id"`
	Trigger    string `json:"trigger"`
	Status     string `json:"status"`
	Outcome    string `json:"outcome,omitempty"`
	Candidates int    `json:"candidates"`
	Accepted   int    `json:"accepted"`
	Committed  int    `json:"committed"`
	Updated    bool   `json:"updated"`
	Stitched   bool   `json:"stitched"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// HistoryResponse lists recent runs, most recent first.
type HistoryResponse struct {
	Runs []RunRecord `json:"runs"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}
