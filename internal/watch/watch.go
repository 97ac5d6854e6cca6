// Package watch follows a running burrow through its Redis ledger.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/burrow/internal/filter"
	"github.com/dyluth/burrow/internal/printer"
	"github.com/dyluth/burrow/pkg/blackboard"
)

// OutputFormat specifies how streamed deposits are written.
type OutputFormat string

const (
	// OutputFormatDefault prints one human-readable line per deposit
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON prints each deposit record as line-delimited JSON
	OutputFormatJSON OutputFormat = "json"
)

// StreamDeposits subscribes to the instance's deposit events and writes each one
// matching criteria to w until ctx is cancelled or the subscription ends. Malformed
// events are reported on stderr and skipped.
func StreamDeposits(ctx context.Context, client *blackboard.Client, format OutputFormat, criteria *filter.Criteria, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSON {
		return fmt.Errorf("unknown output format: %s", format)
	}

	sub, err := client.SubscribeDepositEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if format == OutputFormatDefault {
		fmt.Fprintf(w, "Watching deposits for instance '%s' (Ctrl+C to stop)...\n", client.InstanceName())
	}

	events := sub.Events()
	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			printer.Warning("Skipping deposit event: %v\n", err)

		case rec, ok := <-events:
			if !ok {
				return nil
			}
			if !criteria.Matches(rec) {
				continue
			}
			if err := writeDeposit(w, format, rec); err != nil {
				return err
			}
		}
	}
}

func writeDeposit(w io.Writer, format OutputFormat, rec *blackboard.DepositRecord) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal deposit: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	_, err := fmt.Fprintln(w, FormatDeposit(rec))
	return err
}

// FormatDeposit renders a deposit record as a single line with its time and run.
func FormatDeposit(rec *blackboard.DepositRecord) string {
	stamp := "--:--:--"
	if rec.RecordedMs > 0 {
		stamp = time.UnixMilli(rec.RecordedMs).Format("15:04:05")
	}

	line := fmt.Sprintf("[%s] 💰 Goblin #%d deposited %d ore. Total: %d", stamp, rec.GoblinID, rec.Ore, rec.Total)
	if rec.RunID != "" {
		line += fmt.Sprintf(" (run %s)", shortRunID(rec.RunID))
	}
	return line
}

// WaitForTotal polls the ledger total until it reaches target.
// Returns the observed total or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func WaitForTotal(ctx context.Context, client *blackboard.Client, target uint64, timeout time.Duration) (uint64, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()

		case <-timeoutCh:
			return 0, fmt.Errorf("timeout waiting for total of %d ore after %v", target, timeout)

		case <-ticker.C:
			total, err := client.GetTotal(ctx)
			if err != nil {
				return 0, fmt.Errorf("failed to query total: %w", err)
			}
			if total >= target {
				return total, nil
			}
		}
	}
}

// shortRunID truncates a run id to its first 8 characters for compact display.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
