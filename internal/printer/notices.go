package printer

import (
	"io"
	"os"
	"sync"

	"github.com/dyluth/burrow/pkg/blackboard"
)

// Notices writes the simulation's line-oriented notices.
// Goblins and the fortress share one Notices, so every line is written whole.
type Notices struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotices returns a Notices writing to w.
func NewNotices(w io.Writer) *Notices {
	return &Notices{w: w}
}

// Stdout returns a Notices writing to standard output.
func Stdout() *Notices {
	return NewNotices(os.Stdout)
}

// Discovery announces ore found by a goblin at pos.
func (n *Notices) Discovery(goblinID int, found uint32, pos blackboard.Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	yellow.Fprintf(n.w, "🪓 Goblin #%d found %d ore at %s!\n", goblinID, found, pos)
}

// Return announces a goblin heading back with ore, just before it deposits.
func (n *Notices) Return(goblinID int, ore uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cyan.Fprintf(n.w, "🏃 Goblin #%d heads back to the fortress with %d ore!\n", goblinID, ore)
}

// Deposit confirms a processed deposit and the new running total.
func (n *Notices) Deposit(goblinID int, ore uint32, total uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	green.Fprintf(n.w, "💰 Goblin #%d deposited %d ore. Total: %d\n", goblinID, ore, total)
}
