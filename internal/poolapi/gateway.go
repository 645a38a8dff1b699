// Package poolapi implements a typed facade (the Pool Gateway) over the
// mining pool's admin HTTP API: listing pending payment obligations and
// acknowledging completed ones.
package poolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"

	"github.com/unicitynetwork/unicity-mining-core/errors"
)

// Config configures a Gateway.
type Config struct {
	// BaseURL is the pool admin API root, e.g. "https://pool.example.com".
	BaseURL string
	// PoolID identifies the pool instance within a multi-pool server.
	PoolID string
	// APIKey is presented as a bearer token.
	APIKey string
	// Timeout bounds every individual HTTP call.
	Timeout time.Duration
	// UserAgent is sent on every request for log attribution.
	UserAgent string
}

// Gateway is a typed client over the pool admin HTTP API.
type Gateway struct {
	cfg Config
	hc  *resty.Client
}

// New creates a Gateway from cfg.
func New(cfg Config) *Gateway {
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("User-Agent", cfg.UserAgent)
	return &Gateway{cfg: cfg, hc: hc}
}

// withRetry retries transport-level failures (not application-level
// non-2xx responses) with bounded exponential backoff, surfacing the
// final failure as a batch-level error once retries are exhausted.
func withRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(4),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
}

func classifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.GatewayError(errors.TransportRefused,
		fmt.Sprintf("pool api transport failure: %v", err))
}

// TestConnection reports whether the pool admin API is reachable and
// authenticated.
func (g *Gateway) TestConnection(ctx context.Context) bool {
	resp, err := withRetry(ctx, func() (*resty.Response, error) {
		return g.hc.R().SetContext(ctx).
			Get(fmt.Sprintf("/api/admin/pools/%s/payments/pending", g.cfg.PoolID))
	})
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

// GetPending fetches the pool's pending payment obligations. A non-2xx
// response is treated as an empty list, not an error: the pool is
// allowed to have nothing pending.
func (g *Gateway) GetPending(ctx context.Context) ([]Obligation, error) {
	resp, err := withRetry(ctx, func() (*resty.Response, error) {
		return g.hc.R().SetContext(ctx).
			Get(fmt.Sprintf("/api/admin/pools/%s/payments/pending", g.cfg.PoolID))
	})
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	if !resp.IsSuccess() {
		log.Warnf("get pending returned %d, treating as empty", resp.StatusCode())
		return nil, nil
	}

	var body pendingResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.GatewayError(errors.Decode,
			fmt.Sprintf("unable to decode pending payments response: %v", err))
	}

	out := make([]Obligation, 0, len(body.Payments))
	for _, p := range body.Payments {
		createdAt, err := time.Parse(time.RFC3339, p.CreatedUTC)
		if err != nil {
			createdAt = time.Time{}
		}
		out = append(out, Obligation{
			ID:        p.ID,
			Address:   p.Address,
			Amount:    p.Amount,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}

// MarkCompleted notifies the pool that an obligation has been paid. A
// clean non-2xx response (already completed, unknown id, malformed
// body) returns (false, nil) and is logged, never escalated: the local
// journal is authoritative regardless of whether the pool accepts the
// acknowledgement. A non-nil error indicates the request could not be
// completed at all after retrying.
func (g *Gateway) MarkCompleted(ctx context.Context, obligationID int64, txid string) (bool, error) {
	resp, err := withRetry(ctx, func() (*resty.Response, error) {
		return g.hc.R().SetContext(ctx).
			SetBody(markCompletedRequest{PaymentID: obligationID, TransactionID: txid}).
			Post(fmt.Sprintf("/api/admin/pools/%s/payments/complete", g.cfg.PoolID))
	})
	if err != nil {
		return false, classifyTransportErr(err)
	}
	if !resp.IsSuccess() {
		log.Warnf("mark completed for obligation %d (tx %s) rejected: status %d",
			obligationID, txid, resp.StatusCode())
		return false, nil
	}
	return true, nil
}
