package filter

import (
	"testing"

	"github.com/dyluth/burrow/pkg/blackboard"
	"github.com/stretchr/testify/assert"
)

func goblin(id int) *int { return &id }

func TestCriteria_Matches(t *testing.T) {
	rec := &blackboard.DepositRecord{GoblinID: 2, Ore: 4, RecordedMs: 1000}

	tests := []struct {
		name     string
		criteria *Criteria
		expected bool
	}{
		{name: "nil criteria", criteria: nil, expected: true},
		{name: "empty criteria", criteria: &Criteria{}, expected: true},
		{name: "since before", criteria: &Criteria{SinceMs: 999}, expected: true},
		{name: "since after", criteria: &Criteria{SinceMs: 1001}, expected: false},
		{name: "until after", criteria: &Criteria{UntilMs: 1000}, expected: true},
		{name: "until before", criteria: &Criteria{UntilMs: 999}, expected: false},
		{name: "same goblin", criteria: &Criteria{GoblinID: goblin(2)}, expected: true},
		{name: "goblin zero is a real filter", criteria: &Criteria{GoblinID: goblin(0)}, expected: false},
		{name: "min ore met", criteria: &Criteria{MinOre: 4}, expected: true},
		{name: "min ore missed", criteria: &Criteria{MinOre: 5}, expected: false},
		{name: "all ANDed", criteria: &Criteria{SinceMs: 1, GoblinID: goblin(2), MinOre: 9}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.criteria.Matches(rec))
		})
	}
}

func TestCriteria_HasFilters(t *testing.T) {
	var none *Criteria
	assert.False(t, none.HasFilters())
	assert.False(t, (&Criteria{}).HasFilters())
	assert.True(t, (&Criteria{GoblinID: goblin(0)}).HasFilters())
	assert.True(t, (&Criteria{UntilMs: 5}).HasFilters())
}

func TestCriteria_Apply(t *testing.T) {
	deposits := []*blackboard.DepositRecord{
		{GoblinID: 0, Ore: 1},
		{GoblinID: 1, Ore: 5},
		{GoblinID: 0, Ore: 3},
	}

	got := (&Criteria{GoblinID: goblin(0)}).Apply(deposits)
	assert.Equal(t, []*blackboard.DepositRecord{deposits[0], deposits[2]}, got)

	var none *Criteria
	assert.Equal(t, deposits, none.Apply(deposits))
}
