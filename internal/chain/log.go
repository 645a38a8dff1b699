package chain

import (
	"github.com/decred/slog"

	"github.com/unicitynetwork/unicity-mining-core/internal/logging"
)

var log = logging.Subsystem("CHNG")

// UseLogger configures the chain gateway's subsystem logger level.
func UseLogger(l slog.Logger) {
	log = l
}
