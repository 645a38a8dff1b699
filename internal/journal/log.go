package journal

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("JRNL")

// UseLogger configures the journal's subsystem logger.
func UseLogger(l slog.Logger) {
	log = l
}
