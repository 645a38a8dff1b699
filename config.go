package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/decred/slog"
	flags "github.com/jessevdk/go-flags"

	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/driver"
	"github.com/unicitynetwork/unicity-mining-core/internal/feepolicy"
	"github.com/unicitynetwork/unicity-mining-core/internal/money"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

const (
	appName               = "disburser"
	defaultConfigFilename = "disburser.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "disburser.log"
	defaultJournalDirname = "journal"
	defaultJournalFilename = "completion.db"
	defaultFailLogFilename = "failed_payments.log"

	defaultPoolTimeoutS       = 30
	defaultChainRPCTimeoutS   = 30
	defaultMinConfirmations   = 1
	defaultFeePerByte         = 0.00001
	defaultFeeEstimateFallback = 0.001
	defaultDustThreshold      = 0.001

	defaultBatchSize       = 100
	defaultBlockPeriod     = 20
	defaultPollIntervalS   = 60
	defaultMinWalletBalance = 0.0
)

var (
	defaultHomeDir    = homeDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	defaultJournalPath = filepath.Join(defaultHomeDir, defaultJournalDirname, defaultJournalFilename)
	defaultFailLogPath = filepath.Join(defaultHomeDir, defaultLogDirname, defaultFailLogFilename)
)

func homeDir() string {
	u, err := user.Current()
	if err != nil || u.HomeDir == "" {
		return "."
	}
	return filepath.Join(u.HomeDir, "."+appName)
}

// config defines the full set of configuration options for the
// disburser, populated from defaults, an optional config file, and
// command line flags, in that order of increasing precedence.
type config struct {
	HomeDir    string `long:"homedir" description:"Path to application home directory"`
	ConfigFile string `long:"configfile" description:"Path to configuration file"`
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,... -- Use show to list available subsystems"`
	LogDir     string `long:"logdir" description:"Directory to log output"`

	PoolAPIBaseURL string `long:"pool.api_base_url" description:"Base URL of the pool admin REST API"`
	PoolID         string `long:"pool.pool_id" description:"Pool identifier this disburser acts on behalf of"`
	PoolAPIKey     string `long:"pool.api_key" default-mask:"-" description:"Bearer token for the pool admin API"`
	PoolTimeoutS   int    `long:"pool.request_timeout_s" description:"Timeout in seconds for pool API requests"`

	ChainRPCURL           string  `long:"chain.rpc_url" description:"Base URL of the chain node's JSON-RPC endpoint"`
	ChainRPCUser          string  `long:"chain.rpc_user" description:"Username for chain node RPC"`
	ChainRPCPassword      string  `long:"chain.rpc_password" default-mask:"-" description:"Password for chain node RPC"`
	ChainRPCTimeoutS      int     `long:"chain.rpc_timeout_s" description:"Timeout in seconds for chain node RPC calls"`
	ChainWalletName       string  `long:"chain.wallet_name" description:"Name of the wallet loaded on the chain node"`
	ChainChangeAddress    string  `long:"chain.change_address" description:"Fallback change address; if empty a fresh address is requested for each transaction that emits change"`
	ChainFeePerByte       float64 `long:"chain.fee_per_byte" description:"Fee rate per estimated transaction byte"`
	ChainMinConfirmations int64   `long:"chain.min_confirmations" description:"Minimum confirmations for a utxo to be spendable"`
	ChainUseWalletSigning bool    `long:"chain.use_wallet_signing" description:"Use signrawtransactionwithwallet instead of signrawtransactionwithkey"`

	AutomationEnabled       bool    `long:"automation.enabled" description:"Run the unattended polling loop instead of the interactive prompt"`
	AutomationBatchSize     int     `long:"automation.batch_size" description:"Maximum obligations dispatched per automated batch"`
	AutomationBlockPeriod   int64   `long:"automation.block_period" description:"Minimum blocks between automated batches"`
	AutomationPollIntervalS int     `long:"automation.poll_interval_s" description:"Seconds between automated loop iterations"`
	AutomationMinBalance    float64 `long:"automation.min_balance" description:"Minimum wallet balance required to run an automated batch"`

	JournalPath string `long:"journal.path" description:"Path to the completion journal database file"`
	FailLogPath string `long:"faillog.path" description:"Path to the residual/failed payment log"`

	feeEstimateFallback money.Amount
	dustThreshold       money.Amount
	minWalletBalance    money.Amount
	feePerByte          money.Amount
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	path = os.ExpandEnv(path)
	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	path = path[1:]
	var pathSeparators string
	if runtime.GOOS == "windows" {
		pathSeparators = string(os.PathSeparator) + "/"
	} else {
		pathSeparators = string(os.PathSeparator)
	}

	userName := ""
	if i := strings.IndexAny(path, pathSeparators); i != -1 {
		userName = path[:i]
		path = path[i:]
	}

	home := ""
	var u *user.User
	var err error
	if userName == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(userName)
	}
	if err == nil {
		home = u.HomeDir
	}
	if home == "" {
		home = "."
	}
	return filepath.Join(home, path)
}

func validLogLevel(logLevel string) bool {
	_, ok := slog.LevelFromString(logLevel)
	return ok
}

func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

func parseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] is invalid", debugLevel)
		}
		setLogLevels(debugLevel)
		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(pair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%v]", pair)
		}
		fields := strings.Split(pair, "=")
		subsysID, logLevel := fields[0], fields[1]
		if _, exists := subsystemLoggers[subsysID]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is invalid -- supported subsystems %v",
				subsysID, supportedSubsystems())
		}
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%v] is invalid", logLevel)
		}
		setLogLevel(subsysID, logLevel)
	}
	return nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func writeFileIfAbsent(path string, contents []byte, mode os.FileMode) error {
	if fileExists(path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, contents, mode)
}

func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// loadConfig builds a config from defaults, an optional config file, and
// command line flags, with each source overriding the previous one.
func loadConfig() (*config, []string, error) {
	cfg := config{
		HomeDir:                 defaultHomeDir,
		ConfigFile:              defaultConfigFile,
		DebugLevel:              defaultLogLevel,
		LogDir:                  defaultLogDir,
		PoolTimeoutS:            defaultPoolTimeoutS,
		ChainRPCTimeoutS:        defaultChainRPCTimeoutS,
		ChainMinConfirmations:   defaultMinConfirmations,
		ChainFeePerByte:         defaultFeePerByte,
		AutomationBatchSize:     defaultBatchSize,
		AutomationBlockPeriod:   defaultBlockPeriod,
		AutomationPollIntervalS: defaultPollIntervalS,
		AutomationMinBalance:    defaultMinWalletBalance,
		JournalPath:             defaultJournalPath,
		FailLogPath:             defaultFailLogPath,
	}

	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		} else if !ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if preCfg.HomeDir != "" {
		cfg.HomeDir, _ = filepath.Abs(preCfg.HomeDir)
		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
			preCfg.ConfigFile = cfg.ConfigFile
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		} else {
			cfg.LogDir = preCfg.LogDir
		}
		if preCfg.JournalPath == defaultJournalPath {
			cfg.JournalPath = filepath.Join(cfg.HomeDir, defaultJournalDirname, defaultJournalFilename)
		} else {
			cfg.JournalPath = preCfg.JournalPath
		}
	}

	if err := writeSampleConfigFile(preCfg.ConfigFile); err != nil {
		return nil, nil, fmt.Errorf("error creating a default config file: %v", err)
	}

	var configFileError error
	parser := newConfigParser(&cfg, flags.Default)
	if fileExists(preCfg.ConfigFile) {
		if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				configFileError = err
			}
		}
	}

	remaining, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.HomeDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create home directory: %v", err)
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.JournalPath = cleanAndExpandPath(cfg.JournalPath)
	cfg.FailLogPath = cleanAndExpandPath(cfg.FailLogPath)

	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create journal directory: %v", err)
	}

	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, err
	}

	if cfg.PoolAPIBaseURL == "" {
		return nil, nil, fmt.Errorf("pool.api_base_url is required")
	}
	if cfg.PoolID == "" {
		return nil, nil, fmt.Errorf("pool.pool_id is required")
	}
	if cfg.ChainRPCURL == "" {
		return nil, nil, fmt.Errorf("chain.rpc_url is required")
	}
	if cfg.ChainWalletName == "" {
		return nil, nil, fmt.Errorf("chain.wallet_name is required")
	}

	feeRate, err := money.New(fmt.Sprintf("%v", cfg.ChainFeePerByte))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chain.fee_per_byte: %v", err)
	}
	cfg.feePerByte = feeRate
	cfg.feeEstimateFallback = money.NewFromFloat(defaultFeeEstimateFallback)
	cfg.dustThreshold = money.NewFromFloat(defaultDustThreshold)
	cfg.minWalletBalance = money.NewFromFloat(cfg.AutomationMinBalance)

	if configFileError != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", configFileError)
	}

	return &cfg, remaining, nil
}

func (c *config) feePolicyConfig() feepolicy.Config {
	return feepolicy.Config{
		FeeRatePerByte:      c.feePerByte,
		MinConfirmations:    c.ChainMinConfirmations,
		FeeEstimateFallback: c.feeEstimateFallback,
		DustThreshold:       c.dustThreshold,
	}
}

func (c *config) poolConfig() poolapi.Config {
	return poolapi.Config{
		BaseURL:   c.PoolAPIBaseURL,
		PoolID:    c.PoolID,
		APIKey:    c.PoolAPIKey,
		Timeout:   time.Duration(c.PoolTimeoutS) * time.Second,
		UserAgent: appName + "/" + Version,
	}
}

func (c *config) chainConfig() chain.Config {
	return chain.Config{
		RPCURL:           c.ChainRPCURL,
		RPCUser:          c.ChainRPCUser,
		RPCPass:          c.ChainRPCPassword,
		Timeout:          time.Duration(c.ChainRPCTimeoutS) * time.Second,
		UseWalletSigning: c.ChainUseWalletSigning,
	}
}

func (c *config) automatedConfig() driver.AutomatedConfig {
	return driver.AutomatedConfig{
		BatchSize:        c.AutomationBatchSize,
		BlockPeriod:      c.AutomationBlockPeriod,
		PollInterval:     time.Duration(c.AutomationPollIntervalS) * time.Second,
		MinWalletBalance: c.minWalletBalance,
	}
}
