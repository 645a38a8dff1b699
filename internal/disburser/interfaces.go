package disburser

import (
	"context"

	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// ChainGateway is the subset of the Chain Gateway the Engine drives.
// Satisfied by *chain.Gateway; narrowed to an interface so the Engine
// can be constructed with a fake in tests.
type ChainGateway interface {
	GetBalance(ctx context.Context) (money.Amount, error)
	ListUnspent(ctx context.Context) ([]chain.UnspentOutput, error)
	ValidateAddress(ctx context.Context, addr string) bool
	GetNewAddress(ctx context.Context) (string, error)
	CreateRawTransaction(ctx context.Context, inputs []chain.TransactionInput, outputs map[string]money.Amount) (string, error)
	SignRawTransaction(ctx context.Context, hexTx string) (chain.SignResult, error)
	SendRawTransaction(ctx context.Context, signedHex string) (string, error)
}

// PoolGateway is the subset of the Pool Gateway the Engine drives.
// Satisfied by *poolapi.Gateway.
type PoolGateway interface {
	MarkCompleted(ctx context.Context, obligationID int64, txid string) (bool, error)
}

// CompletionJournal is the subset of the Completion Journal the Engine
// drives. Satisfied by *journal.Journal.
type CompletionJournal interface {
	IsCompleted(obligationID int64) (bool, error)
	TransactionOf(obligationID int64) (string, bool, error)
	MarkCompleted(obligationID int64, txid string) error
}
