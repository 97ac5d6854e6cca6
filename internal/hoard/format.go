package hoard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/burrow/pkg/blackboard"
)

// FormatTable writes goblin statuses and the ledger total as a formatted table.
// The table includes columns: GOBLIN, POSITION, ORE, FATIGUE and AGE.
// Returns the number of goblins formatted.
func FormatTable(w io.Writer, statuses []*blackboard.StatusRecord, total uint64, runID, instanceName string) int {
	if len(statuses) == 0 {
		fmt.Fprintf(w, "No goblins have reported for instance '%s'\n", instanceName)
		fmt.Fprintf(w, "Total ore: %d\n", total)
		return 0
	}

	// Print header
	fmt.Fprintf(w, "Goblins for instance '%s' (run %s):\n\n", instanceName, formatRunID(runID))

	fmt.Fprintf(w, "%-7s %-14s %-5s %-8s %s\n",
		"GOBLIN", "POSITION", "ORE", "FATIGUE", "AGE")
	fmt.Fprintf(w, "%-7s %-14s %-5s %-8s %s\n",
		"-------", "--------------", "-----", "--------", "--------")

	for _, s := range statuses {
		fmt.Fprintf(w, "%-7s %-14s %-5d %-8s %s\n",
			fmt.Sprintf("#%d", s.GoblinID),
			s.Pos.String(),
			s.Ore,
			formatFatigue(s.Fatigue),
			formatTimestamp(s.RecordedMs),
		)
	}

	countMsg := "goblin"
	if len(statuses) != 1 {
		countMsg = "goblins"
	}
	fmt.Fprintf(w, "\n%d %s reporting, total ore: %d\n", len(statuses), countMsg, total)

	return len(statuses)
}

// FormatJSONL writes records as line-delimited JSON (JSONL) to the provided writer.
// Each record is written as a single JSON object on its own line.
func FormatJSONL[T any](w io.Writer, records []T) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatDeposits writes deposits oldest first, one line each.
func FormatDeposits(w io.Writer, deposits []*blackboard.DepositRecord) {
	if len(deposits) == 0 {
		fmt.Fprintln(w, "No deposits recorded")
		return
	}

	for _, d := range deposits {
		fmt.Fprintf(w, "%-8s Goblin #%d deposited %d ore. Total: %d\n",
			formatTimestamp(d.RecordedMs), d.GoblinID, d.Ore, d.Total)
	}
}

// FormatSingleJSON writes a single status as pretty-printed JSON to the provided writer.
func FormatSingleJSON(w io.Writer, status *blackboard.StatusRecord) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	// Add newline for clean output
	fmt.Fprintln(w)

	return nil
}

// formatRunID truncates a run id to its first 8 characters. Empty ids return "-".
func formatRunID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatFatigue(fatigue float64) string {
	return fmt.Sprintf("%.1f", fatigue)
}

// formatTimestamp formats Unix timestamp in milliseconds to human-readable time.
// Shows relative time like "2m ago", "1h ago", etc.
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))

	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}
