// Package errors defines the classified error taxonomy shared by every
// component of the payment disburser. It follows the same shape used
// throughout the codebase it was adapted from: an ErrorKind sentinel with
// full errors.Is/errors.As support, and a small constructor per concern so
// callers can distinguish the origin of a failure (chain, pool, journal,
// engine) without string matching.
package errors

// ErrorKind identifies a kind of error. It has full support for errors.Is
// and errors.As, so callers can check against an error kind directly when
// deciding how to react to a failure.
type ErrorKind string

// Error satisfies the error interface.
func (e ErrorKind) Error() string {
	return string(e)
}

const (
	// ------------------------------------------------------------------
	// Transport-level errors (Chain Gateway, Pool Gateway).
	// ------------------------------------------------------------------

	// TransportTimeout indicates an RPC or HTTP call exceeded its
	// configured deadline.
	TransportTimeout = ErrorKind("TransportTimeout")

	// TransportRefused indicates the remote endpoint refused the
	// connection or could not be reached at all.
	TransportRefused = ErrorKind("TransportRefused")

	// NodeRPCError indicates the chain node accepted the request but
	// responded with an application-level JSON-RPC error.
	NodeRPCError = ErrorKind("NodeRPCError")

	// ------------------------------------------------------------------
	// Transaction construction and broadcast errors.
	// ------------------------------------------------------------------

	// SigningFailed indicates the node's signer did not fully sign a
	// raw transaction.
	SigningFailed = ErrorKind("SigningFailed")

	// BroadcastRejected indicates the node refused a fully signed
	// transaction at broadcast time.
	BroadcastRejected = ErrorKind("BroadcastRejected")

	// InsufficientFunds indicates UTXO selection could not cover a
	// required target.
	InsufficientFunds = ErrorKind("InsufficientFunds")

	// InsufficientBalance indicates the wallet's reported balance
	// cannot cover a batch's total plus its estimated fee.
	InsufficientBalance = ErrorKind("InsufficientBalance")

	// InsufficientUtxos indicates there are no usable unspent outputs
	// at all.
	InsufficientUtxos = ErrorKind("InsufficientUtxos")

	// ------------------------------------------------------------------
	// Obligation validation errors.
	// ------------------------------------------------------------------

	// InvalidAddress indicates an obligation's payout address failed
	// node-side validation.
	InvalidAddress = ErrorKind("InvalidAddress")

	// InvalidAmount indicates an obligation's amount is not strictly
	// positive.
	InvalidAmount = ErrorKind("InvalidAmount")

	// ------------------------------------------------------------------
	// Startup errors.
	// ------------------------------------------------------------------

	// WalletNotFound indicates the configured wallet is absent from the
	// node's wallet list.
	WalletNotFound = ErrorKind("WalletNotFound")

	// ------------------------------------------------------------------
	// Journal errors.
	// ------------------------------------------------------------------

	// JournalConflict indicates a second, different transaction id was
	// presented for an obligation already marked complete.
	JournalConflict = ErrorKind("JournalConflict")

	// ------------------------------------------------------------------
	// Ambient storage/parse errors.
	// ------------------------------------------------------------------

	// DBOpen indicates a database open error.
	DBOpen = ErrorKind("DBOpen")

	// BucketNotFound indicates a storage bucket is missing.
	BucketNotFound = ErrorKind("BucketNotFound")

	// PersistEntry indicates a database persistence error.
	PersistEntry = ErrorKind("PersistEntry")

	// FetchEntry indicates a database entry fetching error.
	FetchEntry = ErrorKind("FetchEntry")

	// Decode indicates a decoding error.
	Decode = ErrorKind("Decode")

	// Parse indicates a parsing error.
	Parse = ErrorKind("Parse")

	// ContextCancelled indicates an operation was abandoned because its
	// context was cancelled.
	ContextCancelled = ErrorKind("ContextCancelled")

	// Config indicates a configuration validation error.
	Config = ErrorKind("Config")
)

// Error identifies an error. It has full support for errors.Is and
// errors.As, so the caller can ascertain the specific reason for the
// error by checking the underlying wrapped kind.
type Error struct {
	Description string
	Err         error
}

// Error satisfies the error interface and prints a human-readable message.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error or kind.
func (e Error) Unwrap() error {
	return e.Err
}

// ChainError creates an Error related to the Chain Gateway.
func ChainError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

// GatewayError creates an Error related to the Pool Gateway.
func GatewayError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

// JournalError creates an Error related to the Completion Journal.
func JournalError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

// EngineError creates an Error related to the Disburser Engine.
func EngineError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

// PreflightError creates an Error related to startup preflight checks.
func PreflightError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
