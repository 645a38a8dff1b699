package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

type fakeChainStatus struct {
	blockCount int64
	balance    money.Amount
	err        error
}

func (f *fakeChainStatus) GetBlockCount(ctx context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.blockCount, nil
}

func (f *fakeChainStatus) GetBalance(ctx context.Context) (money.Amount, error) {
	if f.err != nil {
		return money.Amount{}, f.err
	}
	return f.balance, nil
}

type fakePendingSource struct {
	pending []poolapi.Obligation
	err     error
}

func (f *fakePendingSource) GetPending(ctx context.Context) ([]poolapi.Obligation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pending, nil
}

type fakeEngine struct {
	runCount int
	lastSize int
	results  []disburser.PaymentResult
	err      error
}

func (f *fakeEngine) Run(ctx context.Context, obligations []poolapi.Obligation) ([]disburser.PaymentResult, error) {
	f.runCount++
	f.lastSize = len(obligations)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakePrompt struct {
	selectFn func([]poolapi.Obligation) []poolapi.Obligation
	confirm  bool
	shown    []disburser.PaymentResult
}

func (p *fakePrompt) SelectObligations(ctx context.Context, pending []poolapi.Obligation) ([]poolapi.Obligation, error) {
	if p.selectFn != nil {
		return p.selectFn(pending), nil
	}
	return pending, nil
}

func (p *fakePrompt) Confirm(ctx context.Context, selected []poolapi.Obligation) (bool, error) {
	return p.confirm, nil
}

func (p *fakePrompt) ShowResults(ctx context.Context, results []disburser.PaymentResult) {
	p.shown = results
}

func obligation(id int64, amt string) poolapi.Obligation {
	a, err := money.New(amt)
	if err != nil {
		panic(err)
	}
	return poolapi.Obligation{ID: id, Address: "addr", Amount: a}
}

func TestRunInteractiveNoPendingSkipsEngine(t *testing.T) {
	pool := &fakePendingSource{pending: nil}
	engine := &fakeEngine{}
	d := New(&fakeChainStatus{}, pool, engine)

	if err := d.RunInteractive(context.Background(), &fakePrompt{confirm: true}); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if engine.runCount != 0 {
		t.Fatalf("expected engine not invoked, got %d runs", engine.runCount)
	}
}

func TestRunInteractiveDeclineSkipsEngine(t *testing.T) {
	pool := &fakePendingSource{pending: []poolapi.Obligation{obligation(1, "1.0")}}
	engine := &fakeEngine{}
	d := New(&fakeChainStatus{}, pool, engine)

	prompt := &fakePrompt{confirm: false}
	if err := d.RunInteractive(context.Background(), prompt); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if engine.runCount != 0 {
		t.Fatalf("expected engine not invoked on decline, got %d runs", engine.runCount)
	}
}

func TestRunInteractiveDispatchesSelectedSubset(t *testing.T) {
	obls := []poolapi.Obligation{obligation(1, "1.0"), obligation(2, "2.0")}
	pool := &fakePendingSource{pending: obls}
	want := []disburser.PaymentResult{{ObligationID: 1, Status: disburser.Succeeded}}
	engine := &fakeEngine{results: want}
	d := New(&fakeChainStatus{}, pool, engine)

	prompt := &fakePrompt{
		confirm: true,
		selectFn: func(pending []poolapi.Obligation) []poolapi.Obligation {
			return pending[:1]
		},
	}
	if err := d.RunInteractive(context.Background(), prompt); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if engine.runCount != 1 || engine.lastSize != 1 {
		t.Fatalf("expected engine run once with 1 obligation, got runs=%d size=%d", engine.runCount, engine.lastSize)
	}
	if len(prompt.shown) != 1 || prompt.shown[0].ObligationID != 1 {
		t.Fatalf("expected results surfaced to prompt, got %#v", prompt.shown)
	}
}

func TestRunInteractivePropagatesPendingError(t *testing.T) {
	pool := &fakePendingSource{err: errors.New("pool unreachable")}
	d := New(&fakeChainStatus{}, pool, &fakeEngine{})

	err := d.RunInteractive(context.Background(), &fakePrompt{confirm: true})
	if err == nil {
		t.Fatal("expected error from GetPending to propagate")
	}
}

func TestAutomatedBackdatesLastProcessedOnStartup(t *testing.T) {
	chain := &fakeChainStatus{blockCount: 1000, balance: money.NewFromFloat(10)}
	pool := &fakePendingSource{pending: nil}
	engine := &fakeEngine{}
	d := New(chain, pool, engine)

	cfg := AutomatedConfig{BatchSize: 10, BlockPeriod: 20, PollInterval: 10 * time.Millisecond, MinWalletBalance: money.NewFromFloat(1)}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	_ = d.RunAutomated(ctx, cfg)

	status := d.Status()
	if status.LastProcessedBlock != 1000-20 {
		t.Fatalf("expected backdated last processed block 980, got %d", status.LastProcessedBlock)
	}
}

func TestAutomatedDispatchesWhenDue(t *testing.T) {
	chain := &fakeChainStatus{blockCount: 100, balance: money.NewFromFloat(10)}
	pending := []poolapi.Obligation{obligation(1, "1.0"), obligation(2, "2.0"), obligation(3, "3.0")}
	pool := &fakePendingSource{pending: pending}
	engine := &fakeEngine{results: []disburser.PaymentResult{
		{ObligationID: 1, Status: disburser.Succeeded},
		{ObligationID: 2, Status: disburser.Succeeded},
	}}
	d := New(chain, pool, engine)

	cfg := AutomatedConfig{BatchSize: 2, BlockPeriod: 5, PollInterval: 5 * time.Millisecond, MinWalletBalance: money.NewFromFloat(1)}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
	defer cancel()
	_ = d.RunAutomated(ctx, cfg)

	if engine.runCount == 0 {
		t.Fatal("expected at least one automated batch to run")
	}
	if engine.lastSize != 2 {
		t.Fatalf("expected batch capped at BatchSize=2, got %d", engine.lastSize)
	}
	status := d.Status()
	if status.TotalSucceeded < 2 {
		t.Fatalf("expected tallied successes, got %+v", status)
	}
}

func TestAutomatedSkipsWhenBalanceTooLow(t *testing.T) {
	chain := &fakeChainStatus{blockCount: 100, balance: money.NewFromFloat(0.1)}
	pool := &fakePendingSource{pending: []poolapi.Obligation{obligation(1, "1.0")}}
	engine := &fakeEngine{}
	d := New(chain, pool, engine)

	cfg := AutomatedConfig{BatchSize: 10, BlockPeriod: 5, PollInterval: 5 * time.Millisecond, MinWalletBalance: money.NewFromFloat(5)}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
	defer cancel()
	_ = d.RunAutomated(ctx, cfg)

	if engine.runCount != 0 {
		t.Fatalf("expected engine skipped due to low balance, got %d runs", engine.runCount)
	}
}

func TestAutomatedContinuesAfterIterationError(t *testing.T) {
	chain := &fakeChainStatus{blockCount: 50, balance: money.NewFromFloat(10)}
	pool := &fakePendingSource{err: errors.New("transient pool failure")}
	engine := &fakeEngine{}
	d := New(chain, pool, engine)

	cfg := AutomatedConfig{BatchSize: 10, BlockPeriod: 5, PollInterval: 5 * time.Millisecond, MinWalletBalance: money.NewFromFloat(1)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.RunAutomated(ctx, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected loop to keep running until cancellation, got %v", err)
	}

	status := d.Status()
	if status.LastError == "" {
		t.Fatal("expected LastError recorded after iteration failure")
	}
	if status.TotalIterations == 0 {
		t.Fatal("expected iteration counter to advance despite error")
	}
}
