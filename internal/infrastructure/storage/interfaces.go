package storage

// Repository defines the run-history storage interface. It allows
// swapping implementations and makes testing with the in-memory mock
// straightforward.
type Repository interface {
	// StartRun records the start of a run. The caller assigns the id.
	StartRun(run *Run) error

	// CompleteRun records the closing counters and status of a run.
	CompleteRun(id string, counts RunCounts, status string) error

	// SaveLinkRecord saves one applied or previewed link.
	SaveLinkRecord(rec *LinkRecord) error

	// ListRuns returns recent runs, newest first.
	ListRuns(limit int) ([]Run, error)

	// GetRun retrieves a run by id, or nil when unknown.
	GetRun(id string) (*Run, error)

	// ListLinkRecords returns the link records of one run.
	ListLinkRecords(runID string) ([]LinkRecord, error)

	// GetStats returns aggregate statistics over the history.
	GetStats() (*Stats, error)

	Close() error
}
