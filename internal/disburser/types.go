package disburser

import "github.com/unicitynetwork/unicity-mining-core/internal/money"

// Status is the terminal state of one obligation within a single batch
// invocation.
type Status string

const (
	// Succeeded indicates the obligation's full amount was broadcast and
	// journaled within this invocation.
	Succeeded Status = "Succeeded"
	// AlreadyCompleted indicates the journal already held an entry for
	// this obligation before the batch touched it.
	AlreadyCompleted Status = "AlreadyCompleted"
	// PartiallyPaid indicates streaming dispatch ended with less than the
	// obligation's full amount paid within this invocation (possibly
	// nothing); it remains un-journaled and will be reattempted on a
	// subsequent invocation.
	PartiallyPaid Status = "PartiallyPaid"
	// Failed indicates the obligation did not complete because of an
	// error: it failed validation, the batch aborted before dispatch,
	// the aggregated single-input broadcast failed, or the journal write
	// after a successful broadcast failed.
	Failed Status = "Failed"
)

// PaymentResult is the per-obligation outcome of one Engine invocation.
type PaymentResult struct {
	ObligationID    int64
	Status          Status
	CompletedAmount money.Amount
	TransactionIDs  []string
	Err             error
}

// BatchState is the Engine's in-memory bookkeeping for one invocation.
// It is never persisted: journal entries and on-chain state are the
// only durable signals across runs.
type BatchState struct {
	progress        map[int64]money.Amount
	successfulTxids map[int64][]string
}

func newBatchState() *BatchState {
	return &BatchState{
		progress:        make(map[int64]money.Amount),
		successfulTxids: make(map[int64][]string),
	}
}

func (b *BatchState) addProgress(obligationID int64, amount money.Amount, txid string) {
	b.progress[obligationID] = b.progress[obligationID].Add(amount)
	b.successfulTxids[obligationID] = append(b.successfulTxids[obligationID], txid)
}

func (b *BatchState) progressOf(obligationID int64) money.Amount {
	return b.progress[obligationID]
}

func (b *BatchState) txidsOf(obligationID int64) []string {
	return b.successfulTxids[obligationID]
}
