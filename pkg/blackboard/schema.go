package blackboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so several
// burrows can share one Redis server.
//
// Key pattern: burrow:{instance_name}:{entity}
// Channel pattern: burrow:{instance_name}:{event_type}_events

// StatusKey returns the Redis key for the goblin status hash.
// Fields are goblin ids, values are JSON StatusRecords.
// Pattern: burrow:{instance_name}:status
func StatusKey(instanceName string) string {
	return fmt.Sprintf("burrow:%s:status", instanceName)
}

// DepositsKey returns the Redis key for the append-only deposit list.
// Pattern: burrow:{instance_name}:deposits
func DepositsKey(instanceName string) string {
	return fmt.Sprintf("burrow:%s:deposits", instanceName)
}

// TotalKey returns the Redis key for the deposited ore counter.
// Pattern: burrow:{instance_name}:total
func TotalKey(instanceName string) string {
	return fmt.Sprintf("burrow:%s:total", instanceName)
}

// RunKey returns the Redis key holding the id of the run that last wrote the ledger.
// Pattern: burrow:{instance_name}:run
func RunKey(instanceName string) string {
	return fmt.Sprintf("burrow:%s:run", instanceName)
}

// DepositEventsChannel returns the Pub/Sub channel name for deposit events.
// Pattern: burrow:{instance_name}:deposit_events
func DepositEventsChannel(instanceName string) string {
	return fmt.Sprintf("burrow:%s:deposit_events", instanceName)
}
