// Package goblin simulates a single wandering, ore-gathering goblin.
package goblin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/burrow/internal/config"
	"github.com/dyluth/burrow/internal/mpsc"
	"github.com/dyluth/burrow/pkg/blackboard"
)

// Notifier receives the notices a goblin prints while it works.
type Notifier interface {
	Discovery(goblinID int, found uint32, pos blackboard.Position)
	Return(goblinID int, ore uint32)
}

// Tuning holds the per-tick parameters. Ore bounds are inclusive; fatigue and
// delay upper bounds are exclusive.
type Tuning struct {
	FatigueThreshold   float64
	DiscoveryChance    float64
	OreMin, OreMax     int
	FatigueMin         float64
	FatigueMax         float64
	DelayMin, DelayMax time.Duration
	StopWhenUnobserved bool
}

// DefaultTuning returns the standard goblin parameters.
func DefaultTuning() Tuning {
	return TuningFromConfig(config.Default().Goblin)
}

// TuningFromConfig converts a validated goblin config section.
func TuningFromConfig(g *config.GoblinConfig) Tuning {
	lo, hi := g.DelayRange()
	return Tuning{
		FatigueThreshold:   *g.FatigueThreshold,
		DiscoveryChance:    *g.DiscoveryChance,
		OreMin:             g.OreMin,
		OreMax:             g.OreMax,
		FatigueMin:         g.FatigueMin,
		FatigueMax:         g.FatigueMax,
		DelayMin:           lo,
		DelayMax:           hi,
		StopWhenUnobserved: g.StopWhenUnobserved,
	}
}

// State is a goblin's private state. The zero value is a fresh goblin at the origin.
type State struct {
	Pos     blackboard.Position
	Ore     uint32
	Fatigue float64
}

// Goblin is one agent. Its state is owned by the goroutine running it.
type Goblin struct {
	id      int
	tuning  Tuning
	dice    Dice
	notices Notifier
	state   State
}

// New creates a goblin with the given id. A nil notices discards notices.
func New(id int, tuning Tuning, dice Dice, notices Notifier) *Goblin {
	if notices == nil {
		notices = nopNotifier{}
	}
	return &Goblin{
		id:      id,
		tuning:  tuning,
		dice:    dice,
		notices: notices,
	}
}

// ID returns the goblin's id.
func (g *Goblin) ID() int {
	return g.id
}

// State returns a copy of the goblin's current state.
func (g *Goblin) State() State {
	return g.state
}

// Step runs one tick: move, tire, maybe find ore, then either hand over all ore
// (when fatigue exceeds the threshold) or report status. It returns the message
// to send and how long to rest before the next tick.
//
// Dice are drawn in a fixed order: dx, dy, fatigue, discovery, [amount], delay.
func (g *Goblin) Step() (blackboard.Message, time.Duration) {
	t := g.tuning

	g.state.Pos.X += g.dice.IntRange(-1, 1)
	g.state.Pos.Y += g.dice.IntRange(-1, 1)
	g.state.Fatigue += g.dice.Float64Range(t.FatigueMin, t.FatigueMax)

	if g.dice.Chance(t.DiscoveryChance) {
		found := uint32(g.dice.IntRange(t.OreMin, t.OreMax))
		g.state.Ore += found
		g.notices.Discovery(g.id, found, g.state.Pos)
	}

	var msg blackboard.Message
	if g.state.Fatigue > t.FatigueThreshold {
		g.notices.Return(g.id, g.state.Ore)
		msg = blackboard.DepositEvent{GoblinID: g.id, Ore: g.state.Ore}
		g.state.Ore = 0
		g.state.Fatigue = 0
	} else {
		msg = blackboard.StatusReport{
			GoblinID: g.id,
			Pos:      g.state.Pos,
			Ore:      g.state.Ore,
			Fatigue:  g.state.Fatigue,
		}
	}

	return msg, g.restFor()
}

// restFor draws the delay in whole milliseconds from [DelayMin, DelayMax).
func (g *Goblin) restFor() time.Duration {
	lo := int(g.tuning.DelayMin / time.Millisecond)
	hi := int(g.tuning.DelayMax/time.Millisecond) - 1
	return time.Duration(g.dice.IntRange(lo, hi)) * time.Millisecond
}

// Run ticks until ctx is cancelled, sending each tick's message on tx. Run owns
// tx and closes it on return.
//
// A send that fails because the fortress is gone is not fatal: the goblin keeps
// working unobserved, or returns if StopWhenUnobserved is set.
func (g *Goblin) Run(ctx context.Context, tx *mpsc.Sender[blackboard.Message]) error {
	defer tx.Close()

	unobserved := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		msg, rest := g.Step()

		if err := tx.Send(ctx, msg); err != nil {
			switch {
			case errors.Is(err, mpsc.ErrReceiverGone):
				if g.tuning.StopWhenUnobserved {
					log.Printf("[Goblin %d] Fortress is gone, stopping", g.id)
					return nil
				}
				if !unobserved {
					log.Printf("[Goblin %d] Fortress is gone, carrying on unobserved", g.id)
					unobserved = true
				}
			case ctx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("goblin %d: failed to send %s: %w", g.id, msg.Kind(), err)
			}
		}

		timer := time.NewTimer(rest)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Discovery(int, uint32, blackboard.Position) {}
func (nopNotifier) Return(int, uint32)                         {}
