package storage

// Run modes.
const (
	ModeLink   = "link"
	ModeRepair = "repair"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded linker or repair run. The history is observational
// only: nothing here ever feeds back into matching decisions.
type Run struct {
	ID           string  `json:"id"`
	Mode         string  `json:"mode"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  string  `json:"completed_at,omitempty"`
	DryRun       bool    `json:"dry_run"`
	LookbackDays int     `json:"lookback_days"`
	WindowHours  int     `json:"window_hours"`
	MinScore     float64 `json:"min_score"`
	Matched      int     `json:"matched"`
	Ambiguous    int     `json:"ambiguous"`
	BelowScore   int     `json:"below_score"`
	NoCandidate  int     `json:"no_candidate"`
	Failures     int     `json:"failures"`
	Status       string  `json:"status"`
}

// RunCounts carries the closing counters of a run.
type RunCounts struct {
	Matched     int
	Ambiguous   int
	BelowScore  int
	NoCandidate int
	Failures    int
}

// LinkRecord is one applied (or previewed) link within a run.
type LinkRecord struct {
	ID         int64   `json:"id"`
	RunID      string  `json:"run_id"`
	KeptID     string  `json:"kept_id"`
	DroppedID  string  `json:"dropped_id"`
	SrcAccount string  `json:"src_account"`
	DstAccount string  `json:"dst_account"`
	Amount     int64   `json:"amount"`
	Score      float64 `json:"score"`
	SameDay    bool    `json:"same_day"`
	Action     string  `json:"action"`
	CreatedAt  string  `json:"created_at"`
}

// Stats aggregates the run history.
type Stats struct {
	TotalRuns     int    `json:"total_runs"`
	TotalLinked   int    `json:"total_linked"`
	TotalRepaired int    `json:"total_repaired"`
	TotalFailures int    `json:"total_failures"`
	LastRunAt     string `json:"last_run_at,omitempty"`
}
