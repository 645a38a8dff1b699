package poolapi

import (
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// Obligation is an immutable pending payment record supplied by the pool
// server. It is never mutated by the disburser.
type Obligation struct {
	ID        int64
	Address   string
	Amount    money.Amount
	CreatedAt time.Time
}

// pendingPayment is the wire shape of one entry in the pool's pending
// payments listing.
type pendingPayment struct {
	ID         int64        `json:"id"`
	Address    string       `json:"address"`
	Amount     money.Amount `json:"amount"`
	CreatedUTC string       `json:"createdUtc"`
}

// pendingResponse is the wire shape of GET .../payments/pending.
type pendingResponse struct {
	PoolID   string           `json:"poolId"`
	Payments []pendingPayment `json:"payments"`
}

// markCompletedRequest is the wire shape of POST .../payments/complete.
type markCompletedRequest struct {
	PaymentID     int64  `json:"paymentId"`
	TransactionID string `json:"transactionId"`
}
