// Package fortress is the single consumer of goblin messages. It keeps the last
// known status of every goblin and the running total of deposited ore.
package fortress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/burrow/internal/mpsc"
	"github.com/dyluth/burrow/pkg/blackboard"
)

// Notifier receives deposit confirmations.
type Notifier interface {
	Deposit(goblinID int, ore uint32, total uint64)
}

// Sink is told about every message after the fortress has applied it.
// total is the running total after the message. Sink errors are logged, never fatal.
type Sink interface {
	Observe(ctx context.Context, msg blackboard.Message, total uint64) error
}

// Report is the fortress's last known view of one goblin. It is a historical
// snapshot; the goblin may have moved on since.
type Report struct {
	Pos        blackboard.Position
	Ore        uint32
	Fatigue    float64
	ReceivedAt time.Time
}

// Summary is a point-in-time copy of the fortress state.
type Summary struct {
	Total     uint64
	Deposits  int
	Processed int
	Reports   []*Report // Indexed by goblin id; nil means never reported
}

// Reporting returns how many goblins have reported at least once.
func (s Summary) Reporting() int {
	n := 0
	for _, r := range s.Reports {
		if r != nil {
			n++
		}
	}
	return n
}

// Option configures a Fortress.
type Option func(*Fortress)

// WithSink adds a sink. Sinks are called in the order they were added.
func WithSink(sink Sink) Option {
	return func(f *Fortress) {
		if sink != nil {
			f.sinks = append(f.sinks, sink)
		}
	}
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Fortress) {
		f.now = now
	}
}

// Fortress owns the aggregate state. Handle and Run must only be called from
// one goroutine; the read accessors are safe from any goroutine.
type Fortress struct {
	notices Notifier
	sinks   []Sink
	now     func() time.Time

	mu        sync.RWMutex
	reports   []*Report
	total     uint64
	deposits  int
	processed int
}

// New creates a fortress expecting goblins agents. The report table is sized for
// them up front and grows if a higher id shows up. A nil notices discards notices.
func New(goblins int, notices Notifier, opts ...Option) *Fortress {
	if goblins < 0 {
		goblins = 0
	}
	if notices == nil {
		notices = nopNotifier{}
	}

	f := &Fortress{
		notices: notices,
		now:     time.Now,
		reports: make([]*Report, goblins),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run handles messages in arrival order until every sender has closed and the
// channel is drained, which is a normal shutdown and returns nil. If ctx is
// cancelled first Run returns ctx.Err().
func (f *Fortress) Run(ctx context.Context, rx *mpsc.Receiver[blackboard.Message]) error {
	for {
		msg, err := rx.Recv(ctx)
		if err != nil {
			if errors.Is(err, mpsc.ErrClosed) {
				log.Printf("[Fortress] All goblins gone, closing the gates (total ore: %d)", f.Total())
				return nil
			}
			return err
		}

		f.Handle(ctx, msg)
	}
}

// Handle applies a single message.
func (f *Fortress) Handle(ctx context.Context, msg blackboard.Message) {
	if err := msg.Validate(); err != nil {
		log.Printf("[Fortress] Dropping invalid %s message: %v", msg.Kind(), err)
		return
	}

	var total uint64

	switch m := msg.(type) {
	case blackboard.StatusReport:
		f.mu.Lock()
		f.grow(m.GoblinID)
		f.reports[m.GoblinID] = &Report{
			Pos:        m.Pos,
			Ore:        m.Ore,
			Fatigue:    m.Fatigue,
			ReceivedAt: f.now(),
		}
		f.processed++
		total = f.total
		f.mu.Unlock()

	case blackboard.DepositEvent:
		f.mu.Lock()
		f.total += uint64(m.Ore)
		f.deposits++
		f.processed++
		total = f.total
		f.mu.Unlock()

		f.notices.Deposit(m.GoblinID, m.Ore, total)

	default:
		log.Printf("[Fortress] Ignoring unknown message type %T", msg)
		return
	}

	for _, sink := range f.sinks {
		if err := sink.Observe(ctx, msg, total); err != nil {
			log.Printf("[Fortress] Sink failed for %s from goblin %d: %v", msg.Kind(), msg.Goblin(), err)
		}
	}
}

// grow extends the report table so id is addressable. New slots stay nil.
// Caller holds f.mu.
func (f *Fortress) grow(id int) {
	if id < len(f.reports) {
		return
	}
	grown := make([]*Report, id+1)
	copy(grown, f.reports)
	f.reports = grown
}

// Report returns the last known status of a goblin, or false if it never reported.
func (f *Fortress) Report(id int) (Report, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if id < 0 || id >= len(f.reports) || f.reports[id] == nil {
		return Report{}, false
	}
	return *f.reports[id], true
}

// Total returns the running total of deposited ore.
func (f *Fortress) Total() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}

// Summary returns a deep copy of the current state.
func (f *Fortress) Summary() Summary {
	f.mu.RLock()
	defer f.mu.RUnlock()

	reports := make([]*Report, len(f.reports))
	for i, r := range f.reports {
		if r != nil {
			cp := *r
			reports[i] = &cp
		}
	}

	return Summary{
		Total:     f.total,
		Deposits:  f.deposits,
		Processed: f.processed,
		Reports:   reports,
	}
}

// String renders a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d ore from %d deposits, %d/%d goblins reporting", s.Total, s.Deposits, s.Reporting(), len(s.Reports))
}

type nopNotifier struct{}

func (nopNotifier) Deposit(int, uint32, uint64) {}
