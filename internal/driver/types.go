package driver

import (
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// AutomatedConfig configures the unattended polling loop.
type AutomatedConfig struct {
	// BatchSize caps how many pending obligations a single invocation
	// of the engine is handed.
	BatchSize int
	// BlockPeriod is the minimum number of new blocks that must have
	// been mined since the last processed batch before another one is
	// considered.
	BlockPeriod int64
	// PollInterval is how long the loop sleeps between iterations.
	PollInterval time.Duration
	// MinWalletBalance is the minimum wallet balance required before a
	// batch is dispatched.
	MinWalletBalance money.Amount
}

// AutomatedStatus is a point-in-time snapshot of the automated driver's
// cumulative counters, suitable for exposing over a status endpoint or
// logging on a timer.
type AutomatedStatus struct {
	LastProcessedBlock    int64
	TotalIterations       int64
	TotalBatchesRun       int64
	TotalSucceeded        int64
	TotalPartiallyPaid    int64
	TotalFailed           int64
	TotalAlreadyCompleted int64
	LastRunAt             time.Time
	LastError             string
}
