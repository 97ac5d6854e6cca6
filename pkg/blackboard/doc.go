// Package blackboard defines the messages goblins send to the fortress and the
// Redis ledger the fortress can mirror its state into.
//
// # Messages
//
// A Message is either a StatusReport (a snapshot of one goblin's position, carried
// ore and fatigue) or a DepositEvent (a one-time transfer of the goblin's carried
// ore). Both are plain values; the channel between goblins and the fortress moves
// them by copy.
//
// # Ledger
//
// When a Redis URL is configured the fortress writes every processed message to the
// ledger so other processes can observe a running simulation:
//
//	client, err := blackboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	total, err := client.RecordDeposit(ctx, &blackboard.DepositRecord{
//		RunID:    runID,
//		GoblinID: 2,
//		Ore:      7,
//		Total:    7,
//	})
//
// # Redis Schema
//
// All Redis keys follow the pattern: burrow:{instance_name}:{entity}
//
// Status hash: burrow:{instance_name}:status (field = goblin id)
// Deposit list: burrow:{instance_name}:deposits
// Total counter: burrow:{instance_name}:total
// Run owner: burrow:{instance_name}:run
//
// Pub/Sub channel: burrow:{instance_name}:deposit_events
//
// The ledger is reset by BeginRun at the start of every simulation run; nothing
// survives a restart.
package blackboard
