// Package hoard reads a burrow's Redis ledger and prints what it holds.
package hoard

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/burrow/internal/filter"
	"github.com/dyluth/burrow/pkg/blackboard"
)

// OutputFormat specifies how to format the ledger output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table of goblin statuses followed by the total
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ListStatuses writes the last known status of every goblin and the ledger total.
// An empty ledger is not an error.
func ListStatuses(ctx context.Context, client *blackboard.Client, format OutputFormat, w io.Writer) error {
	runID, err := client.CurrentRun(ctx)
	if err != nil && !blackboard.IsNotFound(err) {
		return err
	}

	statuses, err := client.GetStatuses(ctx)
	if err != nil {
		return err
	}

	total, err := client.GetTotal(ctx)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatDefault:
		FormatTable(w, statuses, total, runID, client.InstanceName())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, statuses); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}

// ListDeposits writes the most recent deposits matching criteria, oldest first.
// limit <= 0 lists all of them. A nil criteria matches every deposit.
func ListDeposits(ctx context.Context, client *blackboard.Client, limit int, criteria *filter.Criteria, format OutputFormat, w io.Writer) error {
	fetch := limit
	if criteria.HasFilters() {
		// The limit applies to matches, not to the raw list
		fetch = 0
	}

	deposits, err := client.GetDeposits(ctx, fetch)
	if err != nil {
		return err
	}

	deposits = criteria.Apply(deposits)
	if limit > 0 && len(deposits) > limit {
		deposits = deposits[len(deposits)-limit:]
	}

	switch format {
	case OutputFormatDefault:
		FormatDeposits(w, deposits)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, deposits); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
