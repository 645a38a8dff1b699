// Package disburser implements the Disburser Engine: the core state
// machine that turns a batch of pending obligations into validated,
// fee-aware, journaled on-chain payments with at-most-once semantics
// across crashes and restarts.
package disburser

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/unicitynetwork/unicity-mining-core/errors"
	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/feepolicy"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

// Config configures an Engine.
type Config struct {
	FeePolicy feepolicy.Config
	// ChangeAddress is used for every emitted change output. If empty,
	// the Engine requests a fresh address from the Chain Gateway for
	// each transaction that needs one.
	ChangeAddress string
	// FailLogPath is the append-only operator-facing log of obligations
	// that did not complete within an invocation. Empty disables it.
	FailLogPath string
}

// Engine is the core state machine driving one batch of obligations
// through validation, selection, construction, broadcast, journaling,
// and remote acknowledgement. An Engine exclusively owns BatchState for
// the duration of a single Run call; it shares no mutable state across
// concurrent invocations and must not be called concurrently with
// itself.
type Engine struct {
	chain   ChainGateway
	pool    PoolGateway
	journal CompletionJournal
	feeCfg  feepolicy.Config
	change  string
	failLog *failLog
}

// New constructs an Engine from its collaborators, passed explicitly
// rather than resolved from a shared registry.
func New(chainGW ChainGateway, poolGW PoolGateway, j CompletionJournal, cfg Config) (*Engine, error) {
	fl, err := openFailLog(cfg.FailLogPath)
	if err != nil {
		return nil, err
	}
	return &Engine{
		chain:   chainGW,
		pool:    poolGW,
		journal: j,
		feeCfg:  cfg.FeePolicy,
		change:  cfg.ChangeAddress,
		failLog: fl,
	}, nil
}

// Close releases the Engine's own resources (the fail log). It does not
// close the gateways or journal it was constructed with.
func (e *Engine) Close() error {
	return e.failLog.close()
}

// Run drives obligations through the full E0-E5 protocol and returns
// one PaymentResult per obligation, in the order supplied.
func (e *Engine) Run(ctx context.Context, obligations []poolapi.Obligation) ([]PaymentResult, error) {
	batchID := uuid.New().String()
	log.Infof("batch %s: processing %d obligation(s)", batchID, len(obligations))

	results := make(map[int64]PaymentResult, len(obligations))
	var working []poolapi.Obligation

	// E0: journal pre-scan.
	for _, o := range obligations {
		done, err := e.journal.IsCompleted(o.ID)
		if err != nil {
			return nil, err
		}
		if !done {
			working = append(working, o)
			continue
		}
		txid, _, err := e.journal.TransactionOf(o.ID)
		if err != nil {
			return nil, err
		}
		results[o.ID] = PaymentResult{
			ObligationID:    o.ID,
			Status:          AlreadyCompleted,
			CompletedAmount: o.Amount,
			TransactionIDs:  txidList(txid),
		}
	}

	// E1: validation. First failure fails the whole remaining batch.
	if len(working) > 0 {
		if err := e.validate(ctx, working); err != nil {
			e.failWorking(working, results, err)
			working = nil
		}
	}

	// E2: capacity check.
	var selected []chain.UnspentOutput
	if len(working) > 0 {
		total := totalAmount(working)
		coarseFee := feepolicy.EstimateFee(len(distinctAddresses(working)), len(distinctAddresses(working)), e.feeCfg)

		balance, err := e.chain.GetBalance(ctx)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(total.Add(coarseFee)) {
			e.failWorking(working, results, errors.EngineError(errors.InsufficientBalance,
				fmt.Sprintf("balance %s insufficient for total %s plus estimated fee %s",
					balance.String(), total.String(), coarseFee.String())))
			working = nil
		} else {
			// E3: selection.
			available, err := e.chain.ListUnspent(ctx)
			if err != nil {
				return nil, err
			}
			sel, err := feepolicy.SelectUTXOs(available, total.Add(coarseFee), e.feeCfg)
			if err != nil {
				e.failWorking(working, results, err)
				working = nil
			} else {
				selected = sel
			}
		}
	}

	// E4: dispatch.
	if len(working) > 0 {
		if len(selected) == 1 {
			e.dispatchSingle(ctx, working, selected[0], results)
		} else {
			e.dispatchStreaming(ctx, working, selected, results)
		}
	}

	final := e.finalize(obligations, results)
	log.Infof("batch %s: finished, %d result(s)", batchID, len(final))
	return final, nil
}

func (e *Engine) validate(ctx context.Context, working []poolapi.Obligation) error {
	for _, o := range working {
		if !o.Amount.IsPositive() {
			return errors.EngineError(errors.InvalidAmount,
				fmt.Sprintf("obligation %d has non-positive amount %s", o.ID, o.Amount.String()))
		}
		if !e.chain.ValidateAddress(ctx, o.Address) {
			return errors.EngineError(errors.InvalidAddress,
				fmt.Sprintf("obligation %d address %s failed validation", o.ID, o.Address))
		}
	}
	return nil
}

// dispatchSingle implements E4a: one transaction, one input, one output
// per distinct address, broadcast once and journaled for every
// obligation in working as a single barrier.
func (e *Engine) dispatchSingle(ctx context.Context, working []poolapi.Obligation, u chain.UnspentOutput, results map[int64]PaymentResult) {
	outputs := make(map[string]money.Amount)
	for _, o := range working {
		outputs[o.Address] = outputs[o.Address].Add(o.Amount)
	}
	total := money.Zero
	for _, amt := range outputs {
		total = total.Add(amt)
	}

	// Open Question #5: re-estimate the fee for this transaction's
	// outputs plus a change output rather than reusing the coarse E2
	// estimate, then fall back to no change if that leaves too little
	// over. The single selected input is passed as the input count, but
	// EstimateFee floors it at the output count, so the estimate is for
	// len(outputs)+1 inputs, not for the one input actually spent.
	feeWithChange := feepolicy.EstimateFee(1, len(outputs)+1, e.feeCfg)
	changeWithFee := u.Amount.Sub(total).Sub(feeWithChange)
	if feepolicy.ShouldEmitChange(changeWithFee, e.feeCfg) {
		changeAddr, err := e.resolveChangeAddress(ctx)
		if err != nil {
			e.failWorking(working, results, err)
			return
		}
		outputs[changeAddr] = changeWithFee.Round8()
	}

	txid, err := e.broadcast(ctx, []chain.TransactionInput{{Txid: u.Txid, Vout: u.Vout}}, outputs)
	if err != nil {
		e.failWorking(working, results, err)
		return
	}

	for _, o := range working {
		e.journalAndAcknowledge(ctx, o.ID, o.Amount, txid, txidList(txid), results)
	}
}

// dispatchStreaming implements E4b: one broadcast per UTXO, each paying
// toward the first not-yet-complete obligation until it finishes or the
// UTXO pool is exhausted.
func (e *Engine) dispatchStreaming(ctx context.Context, working []poolapi.Obligation, utxos []chain.UnspentOutput, results map[int64]PaymentResult) {
	state := newBatchState()
	completed := make(map[int64]bool, len(working))
	dust := feepolicy.EffectiveDustThreshold(e.feeCfg)

	for _, u := range utxos {
		fSingle := feepolicy.EstimateFee(1, 2, e.feeCfg)
		availU := u.Amount.Sub(fSingle)
		if !availU.IsPositive() {
			continue
		}

		target := firstIncomplete(working, state, completed, dust)
		if target == nil {
			break
		}

		remaining := target.Amount.Sub(state.progressOf(target.ID))
		pay := availU
		if remaining.LessThan(availU) {
			pay = remaining
		}

		outputs := map[string]money.Amount{target.Address: pay}
		leftover := u.Amount.Sub(pay).Sub(fSingle)
		if feepolicy.ShouldEmitChange(leftover, e.feeCfg) {
			if changeAddr, err := e.resolveChangeAddress(ctx); err == nil {
				outputs[changeAddr] = leftover.Round8()
			}
		}

		txid, err := e.broadcast(ctx, []chain.TransactionInput{{Txid: u.Txid, Vout: u.Vout}}, outputs)
		if err != nil {
			log.Warnf("streaming broadcast failed for utxo %s:%d targeting obligation %d: %v",
				u.Txid, u.Vout, target.ID, err)
			continue
		}

		state.addProgress(target.ID, pay, txid)
		if state.progressOf(target.ID).GreaterThanOrEqual(target.Amount) {
			e.journalAndAcknowledge(ctx, target.ID, state.progressOf(target.ID), txid, state.txidsOf(target.ID), results)
			completed[target.ID] = true
		}
	}

	for _, o := range working {
		if completed[o.ID] {
			continue
		}
		results[o.ID] = PaymentResult{
			ObligationID:    o.ID,
			Status:          PartiallyPaid,
			CompletedAmount: state.progressOf(o.ID),
			TransactionIDs:  state.txidsOf(o.ID),
		}
	}
}

// firstIncomplete returns the first obligation in working that is
// neither marked completed nor within dust of its target amount.
func firstIncomplete(working []poolapi.Obligation, state *BatchState, completed map[int64]bool, dust money.Amount) *poolapi.Obligation {
	for i := range working {
		o := &working[i]
		if completed[o.ID] {
			continue
		}
		remaining := o.Amount.Sub(state.progressOf(o.ID))
		if remaining.GreaterThan(dust) {
			return o
		}
	}
	return nil
}

// journalAndAcknowledge writes the journal barrier for a completed
// obligation, best-effort notifies the pool, and records the result.
// A JournalConflict is treated as the obligation already having been
// completed by the existing txid, per the Completion Journal's
// idempotency contract.
func (e *Engine) journalAndAcknowledge(ctx context.Context, obligationID int64, completedAmount money.Amount, txid string, allTxids []string, results map[int64]PaymentResult) {
	if err := e.journal.MarkCompleted(obligationID, txid); err != nil {
		if ee, ok := asEngineErr(err); ok && ee.Err == errors.JournalConflict {
			existingTxid, found, terr := e.journal.TransactionOf(obligationID)
			if terr == nil && found {
				results[obligationID] = PaymentResult{
					ObligationID:    obligationID,
					Status:          AlreadyCompleted,
					CompletedAmount: completedAmount,
					TransactionIDs:  txidList(existingTxid),
				}
				return
			}
		}
		results[obligationID] = PaymentResult{ObligationID: obligationID, Status: Failed, Err: err}
		return
	}

	ok, ackErr := e.pool.MarkCompleted(ctx, obligationID, txid)
	if ackErr != nil {
		log.Warnf("pool acknowledgement failed for obligation %d (tx %s): %v", obligationID, txid, ackErr)
	} else if !ok {
		log.Warnf("pool rejected acknowledgement for obligation %d (tx %s)", obligationID, txid)
	}

	results[obligationID] = PaymentResult{
		ObligationID:    obligationID,
		Status:          Succeeded,
		CompletedAmount: completedAmount,
		TransactionIDs:  allTxids,
	}
}

func (e *Engine) broadcast(ctx context.Context, inputs []chain.TransactionInput, outputs map[string]money.Amount) (string, error) {
	hex, err := e.chain.CreateRawTransaction(ctx, inputs, outputs)
	if err != nil {
		return "", err
	}
	signed, err := e.chain.SignRawTransaction(ctx, hex)
	if err != nil {
		return "", err
	}
	return e.chain.SendRawTransaction(ctx, signed.Hex)
}

func (e *Engine) resolveChangeAddress(ctx context.Context) (string, error) {
	if e.change != "" {
		return e.change, nil
	}
	return e.chain.GetNewAddress(ctx)
}

func (e *Engine) failWorking(working []poolapi.Obligation, results map[int64]PaymentResult, err error) {
	for _, o := range working {
		if _, ok := results[o.ID]; ok {
			continue
		}
		results[o.ID] = PaymentResult{ObligationID: o.ID, Status: Failed, Err: err}
	}
}

// finalize orders results per the originally supplied obligation order
// and appends E5 residual log entries for anything short of success.
func (e *Engine) finalize(obligations []poolapi.Obligation, results map[int64]PaymentResult) []PaymentResult {
	out := make([]PaymentResult, 0, len(obligations))
	for _, o := range obligations {
		r, ok := results[o.ID]
		if !ok {
			r = PaymentResult{ObligationID: o.ID, Status: Failed,
				Err: errors.EngineError(errors.Config, fmt.Sprintf("obligation %d was never processed", o.ID))}
		}
		out = append(out, r)

		if r.Status == Failed || r.Status == PartiallyPaid {
			reason := "incomplete"
			if r.Err != nil {
				reason = r.Err.Error()
			}
			e.failLog.record(o.ID, o.Address, o.Amount, r.CompletedAmount, r.TransactionIDs, reason)
		}
	}
	return out
}

func distinctAddresses(obligations []poolapi.Obligation) map[string]bool {
	m := make(map[string]bool, len(obligations))
	for _, o := range obligations {
		m[o.Address] = true
	}
	return m
}

func totalAmount(obligations []poolapi.Obligation) money.Amount {
	total := money.Zero
	for _, o := range obligations {
		total = total.Add(o.Amount)
	}
	return total
}

func txidList(txid string) []string {
	if txid == "" {
		return nil
	}
	return []string{txid}
}

func asEngineErr(err error) (errors.Error, bool) {
	e, ok := err.(errors.Error)
	return e, ok
}
