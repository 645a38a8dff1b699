package preflight

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/unicitynetwork/unicity-mining-core/errors"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

type fakePool struct {
	connected bool
	pending   []poolapi.Obligation
	pendingErr error
}

func (f *fakePool) TestConnection(ctx context.Context) bool { return f.connected }

func (f *fakePool) GetPending(ctx context.Context) ([]poolapi.Obligation, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return f.pending, nil
}

type fakeChain struct {
	connected  bool
	wallets    []string
	walletsErr error
	balance    money.Amount
	balanceErr error
}

func (f *fakeChain) TestConnection(ctx context.Context) bool { return f.connected }

func (f *fakeChain) ListWallets(ctx context.Context) ([]string, error) {
	if f.walletsErr != nil {
		return nil, f.walletsErr
	}
	return f.wallets, nil
}

func (f *fakeChain) GetBalance(ctx context.Context) (money.Amount, error) {
	if f.balanceErr != nil {
		return money.Amount{}, f.balanceErr
	}
	return f.balance, nil
}

func obligation(id int64, amt string) poolapi.Obligation {
	a, err := money.New(amt)
	if err != nil {
		panic(err)
	}
	return poolapi.Obligation{ID: id, Amount: a}
}

func asError(t *testing.T, err error) pkgerrors.Error {
	t.Helper()
	var e pkgerrors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected errors.Error, got %T: %v", err, err)
	}
	return e
}

func TestRunSucceedsWithAdequateBalance(t *testing.T) {
	pool := &fakePool{connected: true, pending: []poolapi.Obligation{obligation(1, "1.0")}}
	chain := &fakeChain{connected: true, wallets: []string{"miningwallet"}, balance: money.NewFromFloat(10)}

	if err := Run(context.Background(), pool, chain, Config{WalletName: "miningwallet"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunSucceedsButWarnsOnInadequateBalance(t *testing.T) {
	pool := &fakePool{connected: true, pending: []poolapi.Obligation{obligation(1, "100.0")}}
	chain := &fakeChain{connected: true, wallets: []string{"miningwallet"}, balance: money.NewFromFloat(1)}

	if err := Run(context.Background(), pool, chain, Config{WalletName: "miningwallet"}); err != nil {
		t.Fatalf("Run should not fail on inadequate balance, got: %v", err)
	}
}

func TestRunFailsOnPoolUnreachable(t *testing.T) {
	pool := &fakePool{connected: false}
	chain := &fakeChain{connected: true}

	err := Run(context.Background(), pool, chain, Config{WalletName: "miningwallet"})
	e := asError(t, err)
	if !errors.Is(e, pkgerrors.TransportRefused) {
		t.Fatalf("expected TransportRefused, got %v", e.Unwrap())
	}
}

func TestRunFailsOnMissingWalletName(t *testing.T) {
	pool := &fakePool{connected: true}
	chain := &fakeChain{connected: true}

	err := Run(context.Background(), pool, chain, Config{WalletName: ""})
	e := asError(t, err)
	if !errors.Is(e, pkgerrors.Config) {
		t.Fatalf("expected Config error, got %v", e.Unwrap())
	}
}

func TestRunFailsOnChainUnreachable(t *testing.T) {
	pool := &fakePool{connected: true}
	chain := &fakeChain{connected: false}

	err := Run(context.Background(), pool, chain, Config{WalletName: "miningwallet"})
	e := asError(t, err)
	if !errors.Is(e, pkgerrors.TransportRefused) {
		t.Fatalf("expected TransportRefused, got %v", e.Unwrap())
	}
}

func TestRunFailsOnWalletNotFound(t *testing.T) {
	pool := &fakePool{connected: true}
	chain := &fakeChain{connected: true, wallets: []string{"someotherwallet"}}

	err := Run(context.Background(), pool, chain, Config{WalletName: "miningwallet"})
	e := asError(t, err)
	if !errors.Is(e, pkgerrors.WalletNotFound) {
		t.Fatalf("expected WalletNotFound, got %v", e.Unwrap())
	}
}
