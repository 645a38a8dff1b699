package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unicitynetwork/unicity-mining-core/errors"
)

// fakeNode is a minimal scripted JSON-RPC 2.0 server for exercising the
// Gateway without a real chain node.
type fakeNode struct {
	results map[string]interface{}
	errs    map[string]*rpcError
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		results: make(map[string]interface{}),
		errs:    make(map[string]*rpcError),
	}
}

func (f *fakeNode) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := rpcResponse{ID: req.ID}
		if e, ok := f.errs[req.Method]; ok {
			resp.Error = e
		} else if v, ok := f.results[req.Method]; ok {
			b, _ := json.Marshal(v)
			resp.Result = b
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newTestGateway(t *testing.T, node *fakeNode) (*Gateway, func()) {
	srv := httptest.NewServer(node.handler(t))
	gw := New(Config{
		RPCURL:  srv.URL,
		RPCUser: "user",
		RPCPass: "pass",
		Timeout: 5 * time.Second,
	})
	return gw, srv.Close
}

func TestTestConnectionSuccess(t *testing.T) {
	node := newFakeNode()
	node.results["getblockchaininfo"] = map[string]interface{}{"chain": "main", "blocks": 100}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	if !gw.TestConnection(context.Background()) {
		t.Fatal("expected TestConnection to succeed")
	}
}

func TestTestConnectionFailure(t *testing.T) {
	node := newFakeNode()
	node.errs["getblockchaininfo"] = &rpcError{Code: -1, Message: "boom"}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	if gw.TestConnection(context.Background()) {
		t.Fatal("expected TestConnection to fail")
	}
}

func TestGetBalance(t *testing.T) {
	node := newFakeNode()
	node.results["getbalance"] = 12.5
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	bal, err := gw.GetBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if bal.String() != "12.50000000" {
		t.Fatalf("got %s, want 12.50000000", bal.String())
	}
}

func TestListUnspent(t *testing.T) {
	node := newFakeNode()
	node.results["listunspent"] = []map[string]interface{}{
		{
			"txid": "abc", "vout": 0, "address": "addr1",
			"scriptPubKey": "76a914", "amount": 10.0,
			"confirmations": 3, "spendable": true, "solvable": true,
		},
	}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	utxos, err := gw.ListUnspent(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(utxos) != 1 {
		t.Fatalf("got %d utxos, want 1", len(utxos))
	}
	if utxos[0].Amount.String() != "10.00000000" {
		t.Fatalf("got amount %s, want 10.00000000", utxos[0].Amount.String())
	}
}

func TestValidateAddressTransportFailureAssumesValid(t *testing.T) {
	node := newFakeNode()
	gw, closeFn := newTestGateway(t, node)
	// Shut the node down first so the call fails at the transport level.
	closeFn()

	if !gw.ValidateAddress(context.Background(), "some-addr") {
		t.Fatal("expected ValidateAddress to assume valid on transport failure")
	}
}

func TestValidateAddressInvalid(t *testing.T) {
	node := newFakeNode()
	node.results["validateaddress"] = map[string]interface{}{"isvalid": false}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	if gw.ValidateAddress(context.Background(), "garbage") {
		t.Fatal("expected ValidateAddress to report invalid")
	}
}

func TestSignRawTransactionIncomplete(t *testing.T) {
	node := newFakeNode()
	node.results["signrawtransactionwithkey"] = map[string]interface{}{
		"hex":      "partial",
		"complete": false,
		"errors": []map[string]interface{}{
			{"txid": "abc", "vout": 0, "error": "unable to sign input"},
		},
	}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	_, err := gw.SignRawTransaction(context.Background(), "unsigned-hex")
	if !errorIsKind(err, errors.SigningFailed) {
		t.Fatalf("expected SigningFailed, got %v", err)
	}
}

func TestSendRawTransactionBroadcastRejected(t *testing.T) {
	node := newFakeNode()
	node.errs["sendrawtransaction"] = &rpcError{Code: -26, Message: "bad-txns-inputs-missingorspent"}
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	_, err := gw.SendRawTransaction(context.Background(), "signed-hex")
	if !errorIsKind(err, errors.BroadcastRejected) {
		t.Fatalf("expected BroadcastRejected, got %v", err)
	}
}

func TestUseWalletRescopesURL(t *testing.T) {
	node := newFakeNode()
	node.results["getblockcount"] = 500
	gw, closeFn := newTestGateway(t, node)
	defer closeFn()

	gw.UseWallet("primary")
	if gw.Wallet() != "primary" {
		t.Fatalf("got wallet %q, want primary", gw.Wallet())
	}

	height, err := gw.GetBlockCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if height != 500 {
		t.Fatalf("got height %d, want 500", height)
	}
}

func errorIsKind(err error, kind errors.ErrorKind) bool {
	var e errors.Error
	if ok := asError(err, &e); ok {
		return e.Err == kind
	}
	return false
}

func asError(err error, target *errors.Error) bool {
	e, ok := err.(errors.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
