package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dyluth/burrow/internal/config"
	"github.com/dyluth/burrow/internal/filter"
	"github.com/dyluth/burrow/internal/hoard"
	"github.com/dyluth/burrow/internal/printer"
	"github.com/dyluth/burrow/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	hoardRedisURL     string
	hoardInstanceName string
	hoardOutputFormat string
	hoardDeposits     bool
	hoardLimit        int
	hoardSince        string
	hoardUntil        string
	hoardGoblin       int
	hoardMinOre       uint32
)

var hoardCmd = &cobra.Command{
	Use:   "hoard [GOBLIN_ID]",
	Short: "Inspect the fortress ledger",
	Long: `Inspect what the fortress recorded in its Redis ledger.

List Mode (no GOBLIN_ID):
  Displays the last known status of every goblin and the ore total.
  With --deposits, lists recent deposits instead.

Deposit Filters (with --deposits):
  --since   - Deposits recorded after this time (duration or RFC3339)
  --until   - Deposits recorded before this time
  --goblin  - Deposits from one goblin
  --min-ore - Deposits of at least this much ore

Get Mode (with GOBLIN_ID):
  Displays one goblin's last status as pretty-printed JSON.

Output Formats (list mode only):
  default - Human-readable table
  jsonl   - Line-delimited JSON, one record per line

Examples:
  # Show every goblin and the total
  burrow hoard

  # Last 10 deposits as JSONL
  burrow hoard --deposits --limit 10 --output=jsonl

  # What goblin 2 brought home in the last five minutes
  burrow hoard --deposits --goblin 2 --since 5m

  # One goblin
  burrow hoard 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHoard,
}

func init() {
	hoardCmd.Flags().StringVar(&hoardRedisURL, "redis-url", defaultRedisURL, "Redis ledger to read")
	hoardCmd.Flags().StringVarP(&hoardInstanceName, "instance", "n", config.DefaultInstance, "Ledger instance name")
	hoardCmd.Flags().StringVarP(&hoardOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	hoardCmd.Flags().BoolVar(&hoardDeposits, "deposits", false, "List deposits instead of goblin statuses")
	hoardCmd.Flags().IntVar(&hoardLimit, "limit", 20, "Most recent deposits to list (0 lists all)")
	hoardCmd.Flags().StringVar(&hoardSince, "since", "", "Show deposits after time (duration or RFC3339)")
	hoardCmd.Flags().StringVar(&hoardUntil, "until", "", "Show deposits before time (duration or RFC3339)")
	hoardCmd.Flags().IntVar(&hoardGoblin, "goblin", 0, "Show deposits from this goblin only")
	hoardCmd.Flags().Uint32Var(&hoardMinOre, "min-ore", 0, "Show deposits of at least this much ore")
	rootCmd.AddCommand(hoardCmd)
}

func runHoard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	isGetMode := len(args) > 0

	goblinID := 0
	if isGetMode {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 0 {
			return printer.Error(
				"invalid goblin id",
				fmt.Sprintf("%q is not a goblin id", args[0]),
				[]string{"Goblin ids are whole numbers starting at 0, e.g.:\n  burrow hoard 2"},
			)
		}
		goblinID = id
	}

	var outputFormat hoard.OutputFormat
	if !isGetMode {
		switch hoardOutputFormat {
		case "default":
			outputFormat = hoard.OutputFormatDefault
		case "jsonl":
			outputFormat = hoard.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", hoardOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
	}

	criteria, err := hoardCriteria(cmd)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use a duration like 5m or an RFC3339 time like 2026-10-18T13:00:00Z"},
		)
	}

	client, err := connectBlackboard(ctx, hoardRedisURL, hoardInstanceName)
	if err != nil {
		return err
	}
	defer client.Close()

	if isGetMode {
		if err := hoard.GetGoblin(ctx, client, goblinID, os.Stdout); err != nil {
			if hoard.IsNotFound(err) {
				return printer.Error(
					"goblin not found",
					err.Error(),
					[]string{"List the goblins that have reported:\n  burrow hoard"},
				)
			}
			return printer.Error("failed to read goblin", err.Error(), nil)
		}
		return nil
	}

	if hoardDeposits {
		err = hoard.ListDeposits(ctx, client, hoardLimit, criteria, outputFormat, os.Stdout)
	} else {
		err = hoard.ListStatuses(ctx, client, outputFormat, os.Stdout)
	}
	if err != nil {
		return printer.ErrorWithContext(
			"failed to read ledger",
			err.Error(),
			map[string]string{"Instance": hoardInstanceName},
			nil,
		)
	}
	return nil
}

// hoardCriteria builds the deposit filter from the hoard flags.
func hoardCriteria(cmd *cobra.Command) (*filter.Criteria, error) {
	sinceMs, untilMs, err := timespec.ParseRange(hoardSince, hoardUntil)
	if err != nil {
		return nil, err
	}

	criteria := &filter.Criteria{
		SinceMs: sinceMs,
		UntilMs: untilMs,
		MinOre:  hoardMinOre,
	}
	if cmd.Flags().Changed("goblin") {
		criteria.GoblinID = &hoardGoblin
	}
	return criteria, nil
}
