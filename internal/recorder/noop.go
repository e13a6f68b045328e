package recorder

import "github.com/google/uuid"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(run *RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return run.ID, nil
}

func (n *NoopRecorder) Latest() (*RunSummary, error) { return nil, ErrNoRuns }
func (n *NoopRecorder) Close() error                 { return nil }
