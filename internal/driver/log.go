package driver

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("DRVR")

// UseLogger configures the batch driver's subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
