// Package orchestrator runs a simulation: it spawns the goblins, drives the
// fortress and exposes the run over HTTP.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/burrow/internal/config"
	"github.com/dyluth/burrow/internal/fortress"
	"github.com/dyluth/burrow/internal/goblin"
	"github.com/dyluth/burrow/internal/mpsc"
	"github.com/dyluth/burrow/internal/observer"
	"github.com/dyluth/burrow/pkg/blackboard"
	"github.com/google/uuid"
)

// Notifier prints both goblin and fortress notices.
type Notifier interface {
	goblin.Notifier
	fortress.Notifier
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotices sets where notices go. Defaults to discarding them.
func WithNotices(n Notifier) Option {
	return func(e *Engine) {
		e.notices = n
	}
}

// WithBlackboard mirrors the run into a Redis ledger.
func WithBlackboard(client *blackboard.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithDice replaces the per-goblin randomness source.
func WithDice(diceFor func(id int) goblin.Dice) Option {
	return func(e *Engine) {
		e.diceFor = diceFor
	}
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(runID string) Option {
	return func(e *Engine) {
		e.runID = runID
	}
}

// Engine wires goblins to the fortress for one simulation run.
type Engine struct {
	cfg     *config.BurrowConfig
	runID   string
	notices Notifier
	client  *blackboard.Client
	diceFor func(id int) goblin.Dice

	fortress *fortress.Fortress
	hub      *observer.Hub
	health   *HealthServer
}

// NewEngine creates an engine for a validated configuration.
func NewEngine(cfg *config.BurrowConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		runID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.diceFor == nil {
		offset := cfg.Simulation.SeedOffset
		e.diceFor = func(id int) goblin.Dice {
			return goblin.NewDice(int64(id) + offset)
		}
	}

	var fortressOpts []fortress.Option
	if e.client != nil {
		fortressOpts = append(fortressOpts, fortress.WithSink(fortress.NewLedger(e.client, e.runID)))
	}
	if cfg.Observer.Addr != "" {
		e.hub = observer.NewHub(e.runID)
		fortressOpts = append(fortressOpts, fortress.WithSink(e.hub))
	}

	var fortressNotices fortress.Notifier
	if e.notices != nil {
		fortressNotices = e.notices
	}
	e.fortress = fortress.New(cfg.Simulation.Goblins, fortressNotices, fortressOpts...)

	if e.hub != nil {
		e.health = NewHealthServer(cfg.Observer.Addr, e.runID, e.fortress, e.client, e.hub)
	}

	return e
}

// RunID returns the id tagging this run in the ledger and the observer feed.
func (e *Engine) RunID() string {
	return e.runID
}

// Fortress returns the run's fortress for read access.
func (e *Engine) Fortress() *fortress.Fortress {
	return e.fortress
}

// Health returns the health server, or nil when no observer address is configured.
func (e *Engine) Health() *HealthServer {
	return e.health
}

// Run starts the fortress and every goblin, then waits for the fortress to finish.
//
// Goblins stop when ctx is cancelled. Each goblin closes its sender as it stops,
// the channel closes after the last one, and the fortress drains what is left
// before returning. Without cancellation Run never returns.
func (e *Engine) Run(ctx context.Context) (fortress.Summary, error) {
	if e.client != nil {
		if err := e.client.BeginRun(ctx, e.runID); err != nil {
			return fortress.Summary{}, fmt.Errorf("failed to start ledger: %w", err)
		}
	}

	if e.health != nil {
		if err := e.health.Start(); err != nil {
			return fortress.Summary{}, fmt.Errorf("failed to start health server: %w", err)
		}
		defer e.health.Shutdown(context.Background())
		defer e.hub.Close()
	}

	sim := e.cfg.Simulation
	tuning := goblin.TuningFromConfig(e.cfg.Goblin)

	tx, rx := mpsc.New[blackboard.Message](sim.ChannelCapacity)

	// The fortress is not bound to ctx: it stops once every goblin has gone and
	// the channel is drained.
	fortressDone := make(chan error, 1)
	go func() {
		fortressDone <- e.fortress.Run(context.Background(), rx)
	}()

	var goblinNotices goblin.Notifier
	if e.notices != nil {
		goblinNotices = e.notices
	}

	var wg sync.WaitGroup
	for id := 0; id < sim.Goblins; id++ {
		g := goblin.New(id, tuning, e.diceFor(id), goblinNotices)
		gtx := tx.Clone()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Run(ctx, gtx); err != nil {
				log.Printf("[Orchestrator] Goblin %d stopped: %v", g.ID(), err)
			}
		}()
	}

	// Drop the original sender so closure follows the goblins alone.
	tx.Close()

	e.logEvent("run_started", map[string]interface{}{
		"goblins":          sim.Goblins,
		"channel_capacity": sim.ChannelCapacity,
		"ledger":           e.client != nil,
		"observer":         e.health != nil,
	})

	err := <-fortressDone
	wg.Wait()

	summary := e.fortress.Summary()
	e.logEvent("run_finished", map[string]interface{}{
		"total_ore": summary.Total,
		"deposits":  summary.Deposits,
		"processed": summary.Processed,
	})

	if err != nil {
		return summary, fmt.Errorf("fortress stopped: %w", err)
	}
	return summary, nil
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "orchestrator"
	data["event_type"] = eventType
	data["run_id"] = e.runID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Orchestrator] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
