package poolapi

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("PAPI")

// UseLogger configures the pool gateway's subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
