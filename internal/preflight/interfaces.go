package preflight

import (
	"context"

	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

// ChainChecker is the narrow slice of the Chain Gateway preflight needs.
type ChainChecker interface {
	TestConnection(ctx context.Context) bool
	ListWallets(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context) (money.Amount, error)
}

// PoolChecker is the narrow slice of the Pool Gateway preflight needs.
type PoolChecker interface {
	TestConnection(ctx context.Context) bool
	GetPending(ctx context.Context) ([]poolapi.Obligation, error)
}
