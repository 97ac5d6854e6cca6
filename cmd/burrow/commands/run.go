package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/burrow/internal/config"
	"github.com/dyluth/burrow/internal/fortress"
	"github.com/dyluth/burrow/internal/orchestrator"
	"github.com/dyluth/burrow/internal/printer"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "burrow.yml"

var (
	runConfigPath string
	runGoblins    int
	runCapacity   int
	runSeedOffset int64
	runDuration   time.Duration
	runRedisURL   string
	runInstance   string
	runHealthAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the goblins and the fortress",
	Long: `Start a simulation: every goblin wanders, digs and carries ore home while
the fortress keeps the last report of each goblin and the running total.

The simulation runs until interrupted (Ctrl+C or SIGTERM) or until --duration
elapses. Goblins stop first, the fortress drains every message still queued,
then a summary is printed.

Configuration is read from burrow.yml when present. Flags override it.

Examples:
  # Five goblins, forever
  burrow run

  # Ten goblins for one minute, mirrored to Redis
  burrow run --goblins 10 --duration 1m --redis-url redis://localhost:6379

  # Serve /healthz and the /ws feed
  burrow run --health-addr :8080`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", defaultConfigPath, "Path to burrow.yml (optional unless given explicitly)")
	runCmd.Flags().IntVar(&runGoblins, "goblins", 0, "Number of goblins (overrides simulation.goblins)")
	runCmd.Flags().IntVar(&runCapacity, "capacity", 0, "Channel capacity (overrides simulation.channel_capacity)")
	runCmd.Flags().Int64Var(&runSeedOffset, "seed-offset", 0, "Added to each goblin id to seed its generator")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	runCmd.Flags().StringVar(&runRedisURL, "redis-url", "", "Mirror the run to this Redis ledger")
	runCmd.Flags().StringVarP(&runInstance, "instance", "n", "", "Ledger instance name (overrides blackboard.instance)")
	runCmd.Flags().StringVar(&runHealthAddr, "health-addr", "", "Serve /healthz and /ws on this address")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runDuration < 0 {
		return printer.Error(
			"invalid duration",
			fmt.Sprintf("--duration must not be negative, got %v", runDuration),
			[]string{"Use 0 to run until interrupted"},
		)
	}

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": runConfigPath},
			[]string{
				"Fix the value in burrow.yml or the matching flag",
				"Remove burrow.yml to run with the defaults",
			},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runDuration)
		defer cancel()
	}

	opts := []orchestrator.Option{orchestrator.WithNotices(printer.Stdout())}
	if cfg.Blackboard.RedisURL != "" {
		client, err := connectBlackboard(ctx, cfg.Blackboard.RedisURL, cfg.Blackboard.Instance)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, orchestrator.WithBlackboard(client))
	}

	engine := orchestrator.NewEngine(cfg, opts...)

	printer.Step("Starting %d goblins (run %s)\n", cfg.Simulation.Goblins, engine.RunID())
	if cfg.Blackboard.RedisURL != "" {
		printer.Info("  ledger:   %s (instance '%s')\n", cfg.Blackboard.RedisURL, cfg.Blackboard.Instance)
	}
	if cfg.Observer.Addr != "" {
		printer.Info("  observer: http://%s/healthz, ws://%s/ws\n", cfg.Observer.Addr, cfg.Observer.Addr)
	}

	summary, err := engine.Run(ctx)
	if err != nil {
		return printer.ErrorWithContext(
			"simulation failed",
			err.Error(),
			map[string]string{"Run": engine.RunID()},
			nil,
		)
	}

	printer.Println()
	printer.Success("Simulation stopped: %s\n", summary)
	writeSummary(os.Stdout, summary)
	return nil
}

// loadRunConfig reads burrow.yml and applies flag overrides. A missing file at the
// default path means defaults; a missing file the user named explicitly is an error.
func loadRunConfig(cmd *cobra.Command) (*config.BurrowConfig, error) {
	var cfg *config.BurrowConfig

	_, statErr := os.Stat(runConfigPath)
	switch {
	case statErr == nil:
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case errors.Is(statErr, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, fmt.Errorf("failed to read config: %w", statErr)
	}

	flags := cmd.Flags()
	if flags.Changed("goblins") {
		cfg.Simulation.Goblins = runGoblins
	}
	if flags.Changed("capacity") {
		cfg.Simulation.ChannelCapacity = runCapacity
	}
	if flags.Changed("seed-offset") {
		cfg.Simulation.SeedOffset = runSeedOffset
	}
	if flags.Changed("redis-url") {
		cfg.Blackboard.RedisURL = runRedisURL
	}
	if flags.Changed("instance") {
		cfg.Blackboard.Instance = runInstance
	}
	if flags.Changed("health-addr") {
		cfg.Observer.Addr = runHealthAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeSummary writes the last known state of every goblin.
func writeSummary(w io.Writer, summary fortress.Summary) {
	for id, report := range summary.Reports {
		if report == nil {
			fmt.Fprintf(w, "  Goblin #%d: never reported\n", id)
			continue
		}
		fmt.Fprintf(w, "  Goblin #%d: at %s carrying %d ore, fatigue %.1f\n",
			id, report.Pos, report.Ore, report.Fatigue)
	}
}
