package storage

import (
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu      sync.Mutex
	runs    map[string]*Run
	order   []string
	records []LinkRecord
	nextID  int64

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	LastStartedRun    *Run

	// Error injection for testing error paths
	StartRunErr       error
	CompleteRunErr    error
	SaveLinkRecordErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:   make(map[string]*Run),
		nextID: 1,
	}
}

func (m *MockRepository) StartRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return m.StartRunErr
	}
	clone := *run
	clone.Status = StatusRunning
	m.runs[run.ID] = &clone
	m.order = append(m.order, run.ID)
	m.LastStartedRun = &clone
	return nil
}

func (m *MockRepository) CompleteRun(id string, counts RunCounts, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil
	}
	run.Matched = counts.Matched
	run.Ambiguous = counts.Ambiguous
	run.BelowScore = counts.BelowScore
	run.NoCandidate = counts.NoCandidate
	run.Failures = counts.Failures
	run.Status = status
	run.CompletedAt = run.StartedAt
	return nil
}

func (m *MockRepository) SaveLinkRecord(rec *LinkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveLinkRecordErr != nil {
		return m.SaveLinkRecordErr
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, *rec)
	return nil
}

func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	for _, id := range m.order {
		runs = append(runs, *m.runs[id])
	}
	// Newest first
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockRepository) GetRun(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	clone := *run
	return &clone, nil
}

func (m *MockRepository) ListLinkRecords(runID string) ([]LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LinkRecord
	for _, rec := range m.records {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &Stats{TotalRuns: len(m.runs)}
	for _, run := range m.runs {
		switch run.Mode {
		case ModeLink:
			stats.TotalLinked += run.Matched
		case ModeRepair:
			stats.TotalRepaired += run.Matched
		}
		stats.TotalFailures += run.Failures
		if run.StartedAt > stats.LastRunAt {
			stats.LastRunAt = run.StartedAt
		}
	}
	return stats, nil
}

func (m *MockRepository) Close() error {
	return nil
}
