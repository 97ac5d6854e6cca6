package blackboard

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for the ledger and the observer feed.
//
// Records are stored as JSON strings: status records as values of a Redis hash
// keyed by goblin id, deposit records as list elements and Pub/Sub payloads.

// Envelope wraps a Message with its kind so mixed streams can be decoded.
type Envelope struct {
	Kind    MessageKind     `json:"kind"`
	RunID   string          `json:"run_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeMessage marshals a message into an Envelope JSON document.
func EncodeMessage(runID string, m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", m.Kind(), err)
	}

	return json.Marshal(Envelope{Kind: m.Kind(), RunID: runID, Payload: payload})
}

// DecodeMessage reverses EncodeMessage. Unknown kinds are an error.
func DecodeMessage(data []byte) (Message, string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	switch env.Kind {
	case KindStatus:
		var s StatusReport
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal status report: %w", err)
		}
		return s, env.RunID, nil
	case KindDeposit:
		var d DepositEvent
		if err := json.Unmarshal(env.Payload, &d); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal deposit event: %w", err)
		}
		return d, env.RunID, nil
	default:
		return nil, "", fmt.Errorf("unknown message kind: %q", env.Kind)
	}
}

// StatusField returns the hash field used for a goblin in the status hash.
func StatusField(goblinID int) string {
	return strconv.Itoa(goblinID)
}

// HashToStatuses converts the status hash to records, skipping nothing.
// A malformed value fails the whole conversion.
func HashToStatuses(hash map[string]string) ([]*StatusRecord, error) {
	records := make([]*StatusRecord, 0, len(hash))
	for field, value := range hash {
		var rec StatusRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status for goblin %s: %w", field, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}
