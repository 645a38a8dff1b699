package feepolicy

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("FPOL")

// UseLogger configures the fee policy package's subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
