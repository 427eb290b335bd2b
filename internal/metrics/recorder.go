package metrics

import "time"

// ResultLabel is the result label of proposal and completion counters.
type ResultLabel string

const (
	ResultAccepted          ResultLabel = "accepted"
	ResultDuplicate         ResultLabel = "duplicate"
	ResultQuotaFull         ResultLabel = "quota_full"
	ResultCompleted         ResultLabel = "completed"
	ResultInsufficientItems ResultLabel = "insufficient_items"
	ResultStale             ResultLabel = "stale"
	ResultError             ResultLabel = "error"
)

// Recorder defines observability hooks for the engine. Implementations must be
// safe for concurrent use.
type Recorder interface {
	IncTaskProposal(kind string, result ResultLabel)
	IncTaskCompletion(kind string, result ResultLabel)
	ObserveStoreSave(table string, d time.Duration, rows int)
	SetActiveSessions(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTaskProposal(string, ResultLabel)         {}
func (NoopRecorder) IncTaskCompletion(string, ResultLabel)       {}
func (NoopRecorder) ObserveStoreSave(string, time.Duration, int) {}
func (NoopRecorder) SetActiveSessions(int)                       {}
