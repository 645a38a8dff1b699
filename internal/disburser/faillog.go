package disburser

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/unicitynetwork/unicity-mining-core/internal/money"
)

// failLog is the append-only, operator-facing record of every
// obligation an invocation did not complete. It exists purely for
// operator visibility (§4.5 E5): the Engine itself never reads it back.
type failLog struct {
	mu sync.Mutex
	f  *os.File
}

// openFailLog opens (creating and appending to) the failed-payment log
// at path. A zero path disables logging: calls become no-ops.
func openFailLog(path string) (*failLog, error) {
	if path == "" {
		return &failLog{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open failed-payment log %s: %w", path, err)
	}
	return &failLog{f: f}, nil
}

func (l *failLog) close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

// record appends one pipe-separated line: timestamp, obligation id,
// address, required amount, completed amount, remaining amount, every
// contributing txid, and the reason the obligation did not complete.
func (l *failLog) record(obligationID int64, address string, required, completed money.Amount, txids []string, reason string) {
	if l.f == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := required.Sub(completed)
	line := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s|%s\n",
		time.Now().UTC().Format(time.RFC3339),
		obligationID, address,
		required.String(), completed.String(), remaining.String(),
		strings.Join(txids, ","), reason)
	_, _ = l.f.WriteString(line)
}
