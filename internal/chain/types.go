package chain

import "github.com/unicitynetwork/unicity-mining-core/internal/money"

// UnspentOutput is a candidate transaction input as reported by the
// chain node's wallet.
type UnspentOutput struct {
	Txid          string
	Vout          uint32
	Amount        money.Amount
	Confirmations int64
	Spendable     bool
	Solvable      bool
	Address       string
	ScriptPubKey  string
}

// TransactionInput references a previous output to spend.
type TransactionInput struct {
	Txid string
	Vout uint32
}

// SignResult is the outcome of a raw-transaction signing attempt.
type SignResult struct {
	Hex      string
	Complete bool
	Errors   []string
}
