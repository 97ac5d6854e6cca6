// Package filter selects deposit records for the watch and hoard commands.
package filter

import (
	"github.com/dyluth/burrow/pkg/blackboard"
)

// Criteria defines filtering criteria for deposits.
// All filters are ANDed together - a deposit must match ALL criteria to pass.
type Criteria struct {
	SinceMs  int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilMs  int64  // Unix timestamp in milliseconds, 0 = no filter
	GoblinID *int   // Exact goblin, nil = no filter
	MinOre   uint32 // Smallest deposit shown, 0 = no filter
}

// Matches returns true if the deposit matches all filter criteria.
// A nil Criteria matches everything.
func (c *Criteria) Matches(rec *blackboard.DepositRecord) bool {
	if c == nil {
		return true
	}

	if c.SinceMs > 0 && rec.RecordedMs < c.SinceMs {
		return false
	}
	if c.UntilMs > 0 && rec.RecordedMs > c.UntilMs {
		return false
	}

	if c.GoblinID != nil && rec.GoblinID != *c.GoblinID {
		return false
	}

	return rec.Ore >= c.MinOre
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	if c == nil {
		return false
	}
	return c.SinceMs > 0 ||
		c.UntilMs > 0 ||
		c.GoblinID != nil ||
		c.MinOre > 0
}

// Apply returns the deposits that match, keeping their order.
func (c *Criteria) Apply(deposits []*blackboard.DepositRecord) []*blackboard.DepositRecord {
	if !c.HasFilters() {
		return deposits
	}

	matched := make([]*blackboard.DepositRecord, 0, len(deposits))
	for _, d := range deposits {
		if c.Matches(d) {
			matched = append(matched, d)
		}
	}
	return matched
}
