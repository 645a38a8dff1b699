package poolapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, func()) {
	srv := httptest.NewServer(handler)
	gw := New(Config{
		BaseURL:   srv.URL,
		PoolID:    "pool-1",
		APIKey:    "secret",
		Timeout:   5 * time.Second,
		UserAgent: "disburser/test",
	})
	return gw, srv.Close
}

func TestTestConnectionSuccess(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("missing bearer auth header: %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(pendingResponse{PoolID: "pool-1"})
	})
	defer closeFn()

	if !gw.TestConnection(context.Background()) {
		t.Fatal("expected TestConnection to succeed")
	}
}

func TestTestConnectionFailure(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer closeFn()

	if gw.TestConnection(context.Background()) {
		t.Fatal("expected TestConnection to fail")
	}
}

func TestGetPending(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/pools/pool-1/payments/pending" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(pendingResponse{
			PoolID: "pool-1",
			Payments: []pendingPayment{
				{ID: 1, Address: "addr1", Amount: money.NewFromFloat(1.5), CreatedUTC: "2026-08-01T00:00:00Z"},
				{ID: 2, Address: "addr2", Amount: money.NewFromFloat(0.25), CreatedUTC: "2026-08-02T00:00:00Z"},
			},
		})
	})
	defer closeFn()

	obligations, err := gw.GetPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(obligations) != 2 {
		t.Fatalf("got %d obligations, want 2", len(obligations))
	}
	if obligations[0].Amount.String() != "1.50000000" {
		t.Fatalf("got amount %s, want 1.50000000", obligations[0].Amount.String())
	}
	if obligations[1].Address != "addr2" {
		t.Fatalf("got address %s, want addr2", obligations[1].Address)
	}
}

func TestGetPendingNonSuccessIsEmptyNotError(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	obligations, err := gw.GetPending(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if obligations != nil {
		t.Fatalf("expected nil obligations, got %v", obligations)
	}
}

func TestMarkCompletedSuccess(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var body markCompletedRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.PaymentID != 7 || body.TransactionID != "tx123" {
			t.Fatalf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	})
	defer closeFn()

	ok, err := gw.MarkCompleted(context.Background(), 7, "tx123")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected MarkCompleted to report true")
	}
}

func TestMarkCompletedRejectedIsNotError(t *testing.T) {
	gw, closeFn := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer closeFn()

	ok, err := gw.MarkCompleted(context.Background(), 7, "tx123")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatal("expected MarkCompleted to report false")
	}
}
