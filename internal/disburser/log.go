package disburser

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("DSBR")

// UseLogger configures the engine's subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
