package main

import (
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/unicitynetwork/unicity-mining-core/internal/chain"
	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
	"github.com/unicitynetwork/unicity-mining-core/internal/driver"
	"github.com/unicitynetwork/unicity-mining-core/internal/feepolicy"
	"github.com/unicitynetwork/unicity-mining-core/internal/journal"
	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
	"github.com/unicitynetwork/unicity-mining-core/internal/preflight"
)

// logRotator holds the log writer used to write logging output to a
// rotating log file, or nil when logging is not yet initialized.
var logRotator *rotator.Rotator

// appLog is the root package's own subsystem logger, used for startup,
// shutdown, and signal handling messages that don't belong to any single
// internal package.
var appLog = logging.Subsystem("MAIN")

// subsystemLoggers maps each subsystem tag to the UseLogger hook that lets
// loadConfig adjust its level from --debuglevel.
var subsystemLoggers = map[string]func(slog.Logger){
	"CHNG": chain.UseLogger,
	"PAPI": poolapi.UseLogger,
	"JRNL": journal.UseLogger,
	"FPOL": feepolicy.UseLogger,
	"DSBR": disburser.UseLogger,
	"DRVR": driver.UseLogger,
	"PRFL": preflight.UseLogger,
	"MAIN": func(l slog.Logger) { appLog = l },
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory. It must be called before
// the package-level log variables are used.
func initLogRotator(logFile string) {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		os.Stderr.WriteString("failed to create log rotator: " + err.Error() + "\n")
		os.Exit(1)
	}
	logRotator = r
	logging.SetOutput(io.MultiWriter(os.Stdout, logWriter{}))
	// Re-create every subsystem logger on the new backend; loggers made
	// before SetOutput still write to the old one.
	setLogLevels(defaultLogLevel)
}

// logWriter implements io.Writer by forwarding to logRotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	return logRotator.Write(p)
}

// setLogLevels sets the logging level for every registered subsystem.
func setLogLevels(levelStr string) {
	for tag, use := range subsystemLoggers {
		l := logging.Subsystem(tag)
		logging.SetLevel(l, levelStr)
		use(l)
	}
}

// setLogLevel sets the logging level for a single subsystem, identified
// by its short tag (e.g. "DSBR").
func setLogLevel(subsysID string, logLevel string) {
	use, ok := subsystemLoggers[subsysID]
	if !ok {
		return
	}
	l := logging.Subsystem(subsysID)
	logging.SetLevel(l, logLevel)
	use(l)
}
