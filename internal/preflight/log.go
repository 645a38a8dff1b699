package preflight

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("PRFL")

// UseLogger configures the preflight subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
