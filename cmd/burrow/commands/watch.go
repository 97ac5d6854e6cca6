package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/burrow/internal/config"
	"github.com/dyluth/burrow/internal/filter"
	"github.com/dyluth/burrow/internal/printer"
	"github.com/dyluth/burrow/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchRedisURL     string
	watchInstanceName string
	watchOutputFormat string
	watchUntil        uint64
	watchTimeout      time.Duration
	watchGoblin       int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream deposits from a running burrow",
	Long: `Stream every deposit the fortress records in its Redis ledger as it happens.

The burrow must have been started with a ledger (--redis-url or
blackboard.redis_url in burrow.yml).

Output Formats:
  default - One line per deposit with time, goblin, ore and running total
  json    - Line-delimited JSON deposit records

Examples:
  # Follow deposits on the default instance
  burrow watch

  # Export deposits as JSON
  burrow watch --output=json > deposits.jsonl

  # Only deposits from goblin 2
  burrow watch --goblin 2

  # Block until the fortress holds 100 ore
  burrow watch --until 100 --timeout 5m`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", defaultRedisURL, "Redis ledger to read")
	watchCmd.Flags().StringVarP(&watchInstanceName, "instance", "n", config.DefaultInstance, "Ledger instance name")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().Uint64Var(&watchUntil, "until", 0, "Exit once the ledger total reaches this much ore")
	watchCmd.Flags().IntVar(&watchGoblin, "goblin", 0, "Only show deposits from this goblin")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Minute, "How long --until waits")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectBlackboard(ctx, watchRedisURL, watchInstanceName)
	if err != nil {
		return err
	}
	defer client.Close()

	if watchUntil > 0 {
		total, err := watch.WaitForTotal(ctx, client, watchUntil, watchTimeout)
		if err != nil {
			return printer.ErrorWithContext(
				"target not reached",
				err.Error(),
				map[string]string{"Instance": watchInstanceName},
				[]string{"Check the burrow is running with this ledger:\n  burrow hoard"},
			)
		}
		printer.Success("Fortress holds %d ore\n", total)
		return nil
	}

	criteria := &filter.Criteria{}
	if cmd.Flags().Changed("goblin") {
		criteria.GoblinID = &watchGoblin
	}

	if err := watch.StreamDeposits(ctx, client, outputFormat, criteria, os.Stdout); err != nil {
		return printer.Error("watch failed", err.Error(), nil)
	}
	return nil
}
