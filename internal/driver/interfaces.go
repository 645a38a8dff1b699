package driver

import (
	"context"

	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

// ChainStatus is the narrow slice of the Chain Gateway the driver needs
// to decide whether a batch is due.
type ChainStatus interface {
	GetBlockCount(ctx context.Context) (int64, error)
	GetBalance(ctx context.Context) (money.Amount, error)
}

// PendingSource is the narrow slice of the Pool Gateway the driver needs
// to discover outstanding obligations.
type PendingSource interface {
	GetPending(ctx context.Context) ([]poolapi.Obligation, error)
}

// Engine is satisfied by *disburser.Engine. Declared as an interface so
// drivers can be exercised against a fake in tests.
type Engine interface {
	Run(ctx context.Context, obligations []poolapi.Obligation) ([]disburser.PaymentResult, error)
}

// OperatorPrompt mediates interactive, human-in-the-loop confirmation.
// Concrete implementations live outside this package (a terminal
// prompt, a TUI, a scripted test double); the driver itself never
// touches stdio.
type OperatorPrompt interface {
	// SelectObligations presents pending and returns the operator's
	// chosen subset, which may be empty to decline the whole batch.
	SelectObligations(ctx context.Context, pending []poolapi.Obligation) ([]poolapi.Obligation, error)
	// Confirm asks the operator to commit to dispatching selected.
	Confirm(ctx context.Context, selected []poolapi.Obligation) (bool, error)
	// ShowResults reports the outcome of a dispatched batch.
	ShowResults(ctx context.Context, results []disburser.PaymentResult)
}
