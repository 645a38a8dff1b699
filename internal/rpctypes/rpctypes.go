// Package rpctypes defines typed result shapes for the chain JSON-RPC
// methods the disburser decodes, and named params types for
// createrawtransaction and the signrawtransaction* methods. The other
// methods (getbalance, listunspent, validateaddress, sendrawtransaction)
// have no params type here: the Chain Gateway passes their positional
// arguments as []interface{} literals.
package rpctypes

import "github.com/unicitynetwork/unicity-mining-core/internal/money"

// TransactionInput references a previous output to spend.
type TransactionInput struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// UnspentOutput mirrors the listunspent result shape: a candidate input
// together with the metadata needed to decide whether it is selectable.
// Amount is decoded via money.Amount.UnmarshalJSON, which accepts the
// node's bare JSON number as readily as a quoted string.
type UnspentOutput struct {
	Txid          string       `json:"txid"`
	Vout          uint32       `json:"vout"`
	Address       string       `json:"address"`
	ScriptPubKey  string       `json:"scriptPubKey"`
	Amount        money.Amount `json:"amount"`
	Confirmations int64        `json:"confirmations"`
	Spendable     bool         `json:"spendable"`
	Solvable      bool         `json:"solvable"`
}

// ValidateAddressResult mirrors validateaddress.
type ValidateAddressResult struct {
	IsValid bool   `json:"isvalid"`
	Address string `json:"address"`
}

// SignRawTransactionError is one entry of the errors array a partially
// completed signing response carries.
type SignRawTransactionError struct {
	Txid      string `json:"txid"`
	Vout      uint32 `json:"vout"`
	ScriptSig string `json:"scriptSig"`
	Sequence  uint32 `json:"sequence"`
	Error     string `json:"error"`
}

// SignRawTransactionResult mirrors signrawtransactionwithwallet /
// signrawtransactionwithkey.
type SignRawTransactionResult struct {
	Hex      string                    `json:"hex"`
	Complete bool                      `json:"complete"`
	Errors   []SignRawTransactionError `json:"errors"`
}

// BlockchainInfoResult mirrors getblockchaininfo, used only as a
// wallet-agnostic liveness probe.
type BlockchainInfoResult struct {
	Chain  string `json:"chain"`
	Blocks int64  `json:"blocks"`
}

// CreateRawTransactionParams is the named params builder for
// createrawtransaction: a list of inputs and a map of address to amount
// string (already rounded to 8 fractional digits by the caller).
type CreateRawTransactionParams struct {
	Inputs  []TransactionInput
	Outputs map[string]string
}

// AsPositional renders the params in the positional array form the
// JSON-RPC wire protocol requires, so the createrawtransaction call site
// does not build the []interface{} itself.
func (p CreateRawTransactionParams) AsPositional() []interface{} {
	return []interface{}{p.Inputs, p.Outputs}
}

// SignRawTransactionParams is the named params builder for
// signrawtransactionwithwallet.
type SignRawTransactionParams struct {
	Hex string
}

// AsPositional renders the params in positional array form.
func (p SignRawTransactionParams) AsPositional() []interface{} {
	return []interface{}{p.Hex}
}
