package fortress

import (
	"context"
	"time"

	"github.com/dyluth/burrow/pkg/blackboard"
)

// ledgerWriteTimeout bounds each Redis write so a slow ledger cannot stall the fortress for long.
const ledgerWriteTimeout = 2 * time.Second

// Ledger mirrors processed messages into the Redis blackboard.
type Ledger struct {
	client *blackboard.Client
	runID  string
	now    func() time.Time
}

// NewLedger returns a sink writing to client under runID.
func NewLedger(client *blackboard.Client, runID string) *Ledger {
	return &Ledger{
		client: client,
		runID:  runID,
		now:    time.Now,
	}
}

// Observe writes the message to the ledger.
func (l *Ledger) Observe(ctx context.Context, msg blackboard.Message, total uint64) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	recordedMs := l.now().UnixMilli()

	switch m := msg.(type) {
	case blackboard.StatusReport:
		return l.client.RecordStatus(ctx, &blackboard.StatusRecord{
			RunID:      l.runID,
			GoblinID:   m.GoblinID,
			Pos:        m.Pos,
			Ore:        m.Ore,
			Fatigue:    m.Fatigue,
			RecordedMs: recordedMs,
		})
	case blackboard.DepositEvent:
		_, err := l.client.RecordDeposit(ctx, &blackboard.DepositRecord{
			RunID:      l.runID,
			GoblinID:   m.GoblinID,
			Ore:        m.Ore,
			Total:      total,
			RecordedMs: recordedMs,
		})
		return err
	}
	return nil
}
