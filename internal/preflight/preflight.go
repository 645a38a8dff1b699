// Package preflight runs the sequential startup assertions that must
// hold before the Batch Driver is allowed to reach the Disburser Engine:
// pool connectivity, wallet configuration, chain connectivity, wallet
// existence, and (as a warning only) balance adequacy.
package preflight

import (
	"context"
	"fmt"

	"github.com/unicitynetwork/unicity-mining-core/errors"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// Config carries the operator-facing settings preflight validates.
type Config struct {
	WalletName string
}

// Run executes every assertion in order, aborting at the first failure.
// It returns nil only when the process is cleared to start the Batch
// Driver; a returned error is always an errors.Error with a preflight
// ErrorKind identifying which assertion failed.
func Run(ctx context.Context, pool PoolChecker, chain ChainChecker, cfg Config) error {
	if !pool.TestConnection(ctx) {
		return errors.PreflightError(errors.TransportRefused, "pool gateway connectivity check failed")
	}
	log.Info("pool gateway reachable")

	if cfg.WalletName == "" {
		return errors.PreflightError(errors.Config, "no wallet name configured")
	}

	if !chain.TestConnection(ctx) {
		return errors.PreflightError(errors.TransportRefused, "chain gateway connectivity check failed")
	}
	log.Info("chain gateway reachable")

	wallets, err := chain.ListWallets(ctx)
	if err != nil {
		return errors.PreflightError(errors.TransportRefused,
			fmt.Sprintf("failed to list wallets: %v", err))
	}
	if !contains(wallets, cfg.WalletName) {
		return errors.PreflightError(errors.WalletNotFound,
			fmt.Sprintf("configured wallet %q not found among %v", cfg.WalletName, wallets))
	}
	log.Infof("wallet %q present", cfg.WalletName)

	balance, err := chain.GetBalance(ctx)
	if err != nil {
		return errors.PreflightError(errors.TransportRefused,
			fmt.Sprintf("failed to fetch wallet balance: %v", err))
	}

	pending, err := pool.GetPending(ctx)
	if err != nil {
		return errors.PreflightError(errors.TransportRefused,
			fmt.Sprintf("failed to fetch pending obligations: %v", err))
	}
	amounts := make([]money.Amount, 0, len(pending))
	for _, o := range pending {
		amounts = append(amounts, o.Amount)
	}
	required := money.Sum(amounts)
	if balance.LessThan(required) {
		log.Warnf("wallet balance %s is below total pending obligations %s",
			balance.String(), required.String())
	}

	return nil
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
