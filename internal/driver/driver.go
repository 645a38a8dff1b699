// Package driver implements the two ways a batch of obligations reaches
// the Disburser Engine: an operator-confirmed interactive run, and a
// long-running automated poll loop gated on block height, pending count,
// and wallet balance.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
)

// Driver wires a Chain Gateway, a Pool Gateway, and an Engine into the
// two run modes. The zero value is not usable; construct via New.
type Driver struct {
	chain ChainStatus
	pool  PendingSource
	engine Engine

	mu     sync.Mutex
	status AutomatedStatus
}

// New creates a Driver from its collaborators.
func New(chainGW ChainStatus, poolGW PendingSource, engine Engine) *Driver {
	return &Driver{chain: chainGW, pool: poolGW, engine: engine}
}

// RunInteractive fetches pending obligations, lets prompt narrow and
// confirm a subset, dispatches that subset through the engine, and
// reports the outcome back through prompt. It returns early, without
// touching the engine, if there is nothing pending or the operator
// declines.
func (d *Driver) RunInteractive(ctx context.Context, prompt OperatorPrompt) error {
	pending, err := d.pool.GetPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Info("no pending obligations")
		return nil
	}

	selected, err := prompt.SelectObligations(ctx, pending)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		log.Info("operator selected no obligations, nothing to do")
		return nil
	}

	ok, err := prompt.Confirm(ctx, selected)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("operator declined to confirm batch")
		return nil
	}

	results, err := d.engine.Run(ctx, selected)
	if err != nil {
		return err
	}
	prompt.ShowResults(ctx, results)
	return nil
}

// Status returns a snapshot of the automated driver's cumulative
// counters. Safe to call concurrently with RunAutomated.
func (d *Driver) Status() AutomatedStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// RunAutomated blocks, polling on cfg.PollInterval, until ctx is
// cancelled. On startup it backdates last_processed_block by
// cfg.BlockPeriod so the first iteration is immediately eligible. Any
// iteration error other than context cancellation is logged and
// followed by a 30s cooldown rather than terminating the loop.
func (d *Driver) RunAutomated(ctx context.Context, cfg AutomatedConfig) error {
	current, err := d.chain.GetBlockCount(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.status.LastProcessedBlock = current - cfg.BlockPeriod
	d.mu.Unlock()

	const errorCooldown = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d.mu.Lock()
		d.status.TotalIterations++
		d.mu.Unlock()

		if err := d.automatedIteration(ctx, cfg); err != nil {
			log.Errorf("automated iteration failed: %v", err)
			d.mu.Lock()
			d.status.LastError = err.Error()
			d.mu.Unlock()
			if !sleepCtx(ctx, errorCooldown) {
				return ctx.Err()
			}
			continue
		}

		if !sleepCtx(ctx, cfg.PollInterval) {
			return ctx.Err()
		}
	}
}

func (d *Driver) automatedIteration(ctx context.Context, cfg AutomatedConfig) error {
	current, err := d.chain.GetBlockCount(ctx)
	if err != nil {
		return err
	}
	balance, err := d.chain.GetBalance(ctx)
	if err != nil {
		return err
	}
	pending, err := d.pool.GetPending(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	last := d.status.LastProcessedBlock
	d.mu.Unlock()

	due := current-last >= cfg.BlockPeriod
	if !due || len(pending) == 0 || balance.LessThan(cfg.MinWalletBalance) {
		log.Debugf("skipping iteration: due=%v pending=%d balance=%s",
			due, len(pending), balance.String())
		return nil
	}

	batch := pending
	if cfg.BatchSize > 0 && len(batch) > cfg.BatchSize {
		batch = batch[:cfg.BatchSize]
	}

	log.Infof("dispatching automated batch of %d obligations at block %d", len(batch), current)
	results, err := d.engine.Run(ctx, batch)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.status.LastProcessedBlock = current
	d.status.TotalBatchesRun++
	d.status.LastRunAt = time.Now()
	d.status.LastError = ""
	tally(&d.status, results)
	d.mu.Unlock()

	return nil
}

// tally folds a batch's results into status's cumulative counters.
// Callers must hold the status's mutex.
func tally(status *AutomatedStatus, results []disburser.PaymentResult) {
	for _, r := range results {
		switch r.Status {
		case disburser.Succeeded:
			status.TotalSucceeded++
		case disburser.AlreadyCompleted:
			status.TotalAlreadyCompleted++
		case disburser.PartiallyPaid:
			status.TotalPartiallyPaid++
		case disburser.Failed:
			status.TotalFailed++
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
