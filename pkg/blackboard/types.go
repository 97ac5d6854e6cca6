package blackboard

import (
	"fmt"
	"math"
)

// Position is a cell on the unbounded goblin grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the position as "(x, y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// MessageKind identifies which variant a Message is.
type MessageKind string

const (
	// KindStatus is a periodic snapshot of a goblin's state
	KindStatus MessageKind = "status"

	// KindDeposit is a one-time transfer of a goblin's ore to the fortress
	KindDeposit MessageKind = "deposit"
)

// Message is sent from a goblin to the fortress.
// The variants are StatusReport and DepositEvent; no other type implements it.
type Message interface {
	Kind() MessageKind
	Goblin() int
	Validate() error
	isMessage()
}

// StatusReport carries a goblin's current snapshot. It never moves ore.
type StatusReport struct {
	GoblinID int      `json:"goblin_id"` // Stable id assigned at spawn, in [0, N)
	Pos      Position `json:"pos"`       // Position after this tick's move
	Ore      uint32   `json:"ore"`       // Uncommitted ore the goblin is carrying
	Fatigue  float64  `json:"fatigue"`   // Accumulated fatigue since the last deposit
}

// DepositEvent transfers a goblin's full carried ore to the fortress.
// After emitting it the goblin's local ore and fatigue are zero.
type DepositEvent struct {
	GoblinID int    `json:"goblin_id"`
	Ore      uint32 `json:"ore"`
}

func (StatusReport) Kind() MessageKind { return KindStatus }
func (DepositEvent) Kind() MessageKind { return KindDeposit }

func (s StatusReport) Goblin() int { return s.GoblinID }
func (d DepositEvent) Goblin() int { return d.GoblinID }

func (StatusReport) isMessage() {}
func (DepositEvent) isMessage() {}

// Validate checks the report has a usable id and a finite, non-negative fatigue.
func (s StatusReport) Validate() error {
	if s.GoblinID < 0 {
		return fmt.Errorf("invalid goblin id: must be >= 0, got %d", s.GoblinID)
	}
	if math.IsNaN(s.Fatigue) || math.IsInf(s.Fatigue, 0) {
		return fmt.Errorf("invalid fatigue: must be finite, got %v", s.Fatigue)
	}
	if s.Fatigue < 0 {
		return fmt.Errorf("invalid fatigue: must be >= 0, got %v", s.Fatigue)
	}
	return nil
}

// Validate checks the deposit has a usable id.
func (d DepositEvent) Validate() error {
	if d.GoblinID < 0 {
		return fmt.Errorf("invalid goblin id: must be >= 0, got %d", d.GoblinID)
	}
	return nil
}

// DepositRecord is a deposit as stored in the ledger and published to watchers.
// Total is the fortress running total right after this deposit was applied.
type DepositRecord struct {
	RunID      string `json:"run_id"`
	GoblinID   int    `json:"goblin_id"`
	Ore        uint32 `json:"ore"`
	Total      uint64 `json:"total"`
	RecordedMs int64  `json:"recorded_ms"`
}

// StatusRecord is the last known status of a goblin as stored in the ledger.
type StatusRecord struct {
	RunID      string   `json:"run_id"`
	GoblinID   int      `json:"goblin_id"`
	Pos        Position `json:"pos"`
	Ore        uint32   `json:"ore"`
	Fatigue    float64  `json:"fatigue"`
	RecordedMs int64    `json:"recorded_ms"`
}
