package goblin

import (
	"math"
	"math/rand"
)

// Dice is a goblin's source of randomness.
type Dice interface {
	// IntRange returns an integer in [lo, hi], both bounds inclusive.
	IntRange(lo, hi int) int
	// Float64Range returns a real in [lo, hi), upper bound exclusive.
	Float64Range(lo, hi float64) float64
	// Chance returns true with probability p.
	Chance(p float64) bool
}

type randDice struct {
	r *rand.Rand
}

// NewDice returns Dice backed by a deterministic generator. Two Dice built from
// the same seed produce the same sequence.
func NewDice(seed int64) Dice {
	return &randDice{r: rand.New(rand.NewSource(seed))}
}

func (d *randDice) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + d.r.Intn(hi-lo+1)
}

func (d *randDice) Float64Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + d.r.Float64()*(hi-lo)
	// lo + f*(hi-lo) can round up to hi.
	if v >= hi {
		v = math.Nextafter(hi, lo)
	}
	return v
}

func (d *randDice) Chance(p float64) bool {
	return d.r.Float64() < p
}
