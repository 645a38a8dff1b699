package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
	"github.com/unicitynetwork/unicity-mining-core/internal/driver"
	"github.com/unicitynetwork/unicity-mining-core/internal/journal"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
	"github.com/unicitynetwork/unicity-mining-core/internal/preflight"
)

// Exit codes, per the documented CLI surface.
const (
	exitNormal           = 0
	exitPreflightFailure = 1
	exitFatalEngineError = 2
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, remaining, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitPreflightFailure)
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	appLog.Infof("version %s (go %s)", Version, runtime.Version())
	appLog.Infof("home dir: %s", cfg.HomeDir)

	if len(remaining) > 0 && remaining[0] == "selftest" {
		os.Exit(runSelftest(cfg))
	}

	os.Exit(run(cfg))
}

func run(cfg *config) int {
	chainGW := chain.New(cfg.chainConfig())
	chainGW.UseWallet(cfg.ChainWalletName)
	poolGW := poolapi.New(cfg.poolConfig())

	if err := preflight.Run(context.Background(), poolGW, chainGW, preflight.Config{WalletName: cfg.ChainWalletName}); err != nil {
		appLog.Errorf("preflight failed: %v", err)
		return exitPreflightFailure
	}
	appLog.Info("preflight checks passed")

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		appLog.Errorf("failed to open completion journal: %v", err)
		return exitFatalEngineError
	}
	defer j.Close()

	engine, err := disburser.New(chainGW, poolGW, j, disburser.Config{
		FeePolicy:     cfg.feePolicyConfig(),
		ChangeAddress: cfg.ChainChangeAddress,
		FailLogPath:   cfg.FailLogPath,
	})
	if err != nil {
		appLog.Errorf("failed to construct engine: %v", err)
		return exitFatalEngineError
	}
	defer engine.Close()

	drv := driver.New(chainGW, poolGW, engine)

	ctx, cancel := shutdownListener()
	defer cancel()

	if cfg.AutomationEnabled {
		appLog.Info("starting automated batch driver")
		if err := drv.RunAutomated(ctx, cfg.automatedConfig()); err != nil && ctx.Err() == nil {
			appLog.Errorf("automated driver exited: %v", err)
			return exitFatalEngineError
		}
		return exitNormal
	}

	appLog.Info("starting interactive batch driver")
	if err := drv.RunInteractive(ctx, newConsolePrompt()); err != nil {
		appLog.Errorf("interactive run failed: %v", err)
		return exitFatalEngineError
	}
	return exitNormal
}

func runSelftest(cfg *config) int {
	chainGW := chain.New(cfg.chainConfig())
	chainGW.UseWallet(cfg.ChainWalletName)
	poolGW := poolapi.New(cfg.poolConfig())

	if err := preflight.Run(context.Background(), poolGW, chainGW, preflight.Config{WalletName: cfg.ChainWalletName}); err != nil {
		fmt.Fprintf(os.Stderr, "selftest failed: %v\n", err)
		return exitPreflightFailure
	}
	fmt.Println("selftest passed")
	return exitNormal
}
