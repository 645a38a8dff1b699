package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/unicitynetwork/unicity-mining-core/internal/disburser"
	"github.com/unicitynetwork/unicity-mining-core/internal/poolapi"
)

// consolePrompt is the terminal-backed driver.OperatorPrompt used by
// interactive runs. It never buffers more than the obligations handed to
// it by the driver.
type consolePrompt struct {
	in  *bufio.Reader
	out *os.File
}

func newConsolePrompt() *consolePrompt {
	return &consolePrompt{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *consolePrompt) SelectObligations(ctx context.Context, pending []poolapi.Obligation) ([]poolapi.Obligation, error) {
	fmt.Fprintf(p.out, "%d pending obligation(s):\n", len(pending))
	for i, o := range pending {
		fmt.Fprintf(p.out, "  [%d] id=%d address=%s amount=%s\n", i+1, o.ID, o.Address, o.Amount.String())
	}
	fmt.Fprint(p.out, "Dispatch all of the above? [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(strings.ToLower(line)) != "y" {
		return nil, nil
	}
	return pending, nil
}

func (p *consolePrompt) Confirm(ctx context.Context, selected []poolapi.Obligation) (bool, error) {
	fmt.Fprintf(p.out, "About to dispatch %d obligation(s). Continue? [y/N]: ", len(selected))
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(strings.ToLower(line)) == "y", nil
}

func (p *consolePrompt) ShowResults(ctx context.Context, results []disburser.PaymentResult) {
	for _, r := range results {
		fmt.Fprintf(p.out, "  obligation %d: %s (%s, %d tx)\n",
			r.ObligationID, r.Status, r.CompletedAmount.String(), len(r.TransactionIDs))
		if r.Err != nil {
			fmt.Fprintf(p.out, "    error: %v\n", r.Err)
		}
	}
}
