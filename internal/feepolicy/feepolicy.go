// Package feepolicy implements the pure, I/O-free fee estimation and
// UTXO selection rules the Disburser Engine drives every batch through.
// Nothing here touches the chain or the journal; every function is
// deterministic given its inputs.
package feepolicy

import (
	"fmt"
	"sort"

	"github.com/unicitynetwork/unicity-mining-core/errors"
	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// FallbackFee is returned by EstimateFee when byte/rate arithmetic
// cannot produce a sane result. It doubles as the dust ceiling
// discussed in the open questions around magic constants: both values
// are named separately in Config so they can be set independently.
var FallbackFee = money.NewFromFloat(0.001)

// Config holds the tunable constants of the fee and selection policy.
// FeeEstimateFallback and DustThreshold are deliberately distinct
// fields even though both commonly default to 0.001: they govern
// unrelated decisions (fee-estimation failure vs. change-output
// suppression) and a caller may want to diverge them. The binary fills
// both from fixed defaults; neither is a config-file or command line
// option.
type Config struct {
	FeeRatePerByte      money.Amount
	MinConfirmations    int64
	FeeEstimateFallback money.Amount
	DustThreshold       money.Amount
}

// EstimateFee estimates the miner fee for a transaction with the given
// input and output counts at the configured fee rate. inputCount is
// floored at max(1, outputCount) per the reference policy: a
// transaction is never assumed to need fewer inputs than the number of
// distinct payout addresses it serves.
func EstimateFee(inputCount, outputCount int, cfg Config) money.Amount {
	minInputs := outputCount
	if minInputs < 1 {
		minInputs = 1
	}
	if inputCount < minInputs {
		inputCount = minInputs
	}

	bytes := 10 + 150*inputCount + 34*outputCount
	if bytes <= 0 {
		log.Warnf("fee estimate produced non-positive byte count (inputs=%d outputs=%d), falling back to %s",
			inputCount, outputCount, cfg.FeeEstimateFallback.String())
		return fallback(cfg)
	}

	fee := money.NewFromFloat(float64(bytes)).Mul(cfg.FeeRatePerByte)
	if !fee.IsPositive() {
		log.Warnf("fee estimate resolved to non-positive amount, falling back to %s",
			cfg.FeeEstimateFallback.String())
		return fallback(cfg)
	}
	return fee.Round8()
}

func fallback(cfg Config) money.Amount {
	if cfg.FeeEstimateFallback.IsPositive() {
		return cfg.FeeEstimateFallback
	}
	return FallbackFee
}

// EffectiveDustThreshold returns cfg.DustThreshold, falling back to
// FallbackFee when no positive threshold was configured.
func EffectiveDustThreshold(cfg Config) money.Amount {
	if cfg.DustThreshold.IsPositive() {
		return cfg.DustThreshold
	}
	return FallbackFee
}

// ShouldEmitChange reports whether a change output of the given amount
// is worth emitting, versus silently surrendering it as additional fee.
func ShouldEmitChange(change money.Amount, cfg Config) bool {
	return change.GreaterThan(EffectiveDustThreshold(cfg))
}

// SelectUTXOs chooses a subset of available UTXOs whose summed amount
// covers required. Candidates are first filtered to spendable outputs
// meeting cfg.MinConfirmations, then sorted descending by amount.
//
// If a single UTXO covers required on its own, the first such UTXO in
// descending order is returned alone (documented policy choice: this
// favors paying from the largest sufficient output, minimizing how
// often a single obligation fragments across multiple broadcasts, at
// the cost of accumulating smaller dust UTXOs over time).
//
// Otherwise UTXOs are accumulated in descending order until the running
// sum reaches required. If the full filtered set still falls short,
// selection fails with InsufficientFunds.
func SelectUTXOs(available []chain.UnspentOutput, required money.Amount, cfg Config) ([]chain.UnspentOutput, error) {
	candidates := make([]chain.UnspentOutput, 0, len(available))
	for _, u := range available {
		if u.Spendable && u.Confirmations >= cfg.MinConfirmations {
			candidates = append(candidates, u)
		}
	}
	sortDescending(candidates)

	if len(candidates) == 0 {
		return nil, errors.EngineError(errors.InsufficientUtxos,
			"no spendable utxos meet the minimum confirmation requirement")
	}

	for _, u := range candidates {
		if u.Amount.GreaterThanOrEqual(required) {
			return []chain.UnspentOutput{u}, nil
		}
	}

	selected := make([]chain.UnspentOutput, 0, len(candidates))
	running := money.Zero
	for _, u := range candidates {
		selected = append(selected, u)
		running = running.Add(u.Amount)
		if running.GreaterThanOrEqual(required) {
			return selected, nil
		}
	}

	return nil, errors.EngineError(errors.InsufficientFunds,
		fmt.Sprintf("required %s, available %s across %d utxos",
			required.String(), running.String(), len(candidates)))
}

func sortDescending(utxos []chain.UnspentOutput) {
	sort.Slice(utxos, func(i, j int) bool {
		return utxos[i].Amount.GreaterThan(utxos[j].Amount)
	})
}
