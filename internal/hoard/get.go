package hoard

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/burrow/pkg/blackboard"
)

// GetGoblin retrieves one goblin's status and writes it as pretty-printed JSON to the writer.
// Uses blackboard.IsNotFound() to distinguish a goblin that never reported from other errors.
func GetGoblin(ctx context.Context, client *blackboard.Client, goblinID int, w io.Writer) error {
	if goblinID < 0 {
		return fmt.Errorf("invalid goblin id %d: must be >= 0", goblinID)
	}

	status, err := client.GetStatus(ctx, goblinID)
	if err != nil {
		if blackboard.IsNotFound(err) {
			return &GoblinNotFoundError{GoblinID: goblinID}
		}
		return fmt.Errorf("failed to fetch goblin status: %w", err)
	}

	if err := FormatSingleJSON(w, status); err != nil {
		return fmt.Errorf("failed to format status: %w", err)
	}

	return nil
}

// GoblinNotFoundError is returned when a goblin has no status in the ledger.
type GoblinNotFoundError struct {
	GoblinID int
}

func (e *GoblinNotFoundError) Error() string {
	return fmt.Sprintf("goblin #%d has not reported", e.GoblinID)
}

// IsNotFound returns true if the error is a GoblinNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*GoblinNotFoundError)
	return ok
}
