package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for the ledger.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new ledger client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: burrow instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client writes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// BeginRun clears the ledger for this instance and marks runID as its owner.
// Simulation state is never carried over between runs.
func (c *Client) BeginRun(ctx context.Context, runID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx,
			StatusKey(c.instanceName),
			DepositsKey(c.instanceName),
			TotalKey(c.instanceName),
		)
		pipe.Set(ctx, RunKey(c.instanceName), runID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset ledger for run %s: %w", runID, err)
	}
	return nil
}

// CurrentRun returns the id of the run that owns the ledger.
// Returns ("", redis.Nil) if no run has started.
func (c *Client) CurrentRun(ctx context.Context) (string, error) {
	runID, err := c.rdb.Get(ctx, RunKey(c.instanceName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to read run id: %w", err)
	}
	return runID, nil
}

// RecordStatus overwrites the stored status of one goblin.
func (c *Client) RecordStatus(ctx context.Context, rec *StatusRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}

	key := StatusKey(c.instanceName)
	if err := c.rdb.HSet(ctx, key, StatusField(rec.GoblinID), data).Err(); err != nil {
		return fmt.Errorf("failed to write status to Redis: %w", err)
	}
	return nil
}

// GetStatus returns the stored status of one goblin.
// Returns (nil, redis.Nil) if the goblin has not reported.
func (c *Client) GetStatus(ctx context.Context, goblinID int) (*StatusRecord, error) {
	data, err := c.rdb.HGet(ctx, StatusKey(c.instanceName), StatusField(goblinID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read status from Redis: %w", err)
	}

	var rec StatusRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status for goblin %d: %w", goblinID, err)
	}
	return &rec, nil
}

// RecordDeposit appends a deposit, increments the ledger total and publishes the
// record to deposit_events. The list append and counter increment are one transaction.
// Returns the ledger total after the increment.
func (c *Client) RecordDeposit(ctx context.Context, rec *DepositRecord) (uint64, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal deposit record: %w", err)
	}

	var incr *redis.IntCmd
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, DepositsKey(c.instanceName), data)
		incr = pipe.IncrBy(ctx, TotalKey(c.instanceName), int64(rec.Ore))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write deposit to Redis: %w", err)
	}

	channel := DepositEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return 0, fmt.Errorf("failed to publish deposit event: %w", err)
	}

	return uint64(incr.Val()), nil
}

// GetTotal returns the deposited ore total. A missing counter reads as zero.
func (c *Client) GetTotal(ctx context.Context) (uint64, error) {
	raw, err := c.rdb.Get(ctx, TotalKey(c.instanceName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read total from Redis: %w", err)
	}

	total, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid total value %q: %w", raw, err)
	}
	return total, nil
}

// GetStatuses returns every stored goblin status ordered by goblin id.
// Returns an empty slice if nothing has been reported (not an error).
func (c *Client) GetStatuses(ctx context.Context) ([]*StatusRecord, error) {
	hash, err := c.rdb.HGetAll(ctx, StatusKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read statuses from Redis: %w", err)
	}

	records, err := HashToStatuses(hash)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].GoblinID < records[j].GoblinID
	})
	return records, nil
}

// GetDeposits returns the most recent deposits, oldest first.
// limit <= 0 returns the whole list.
func (c *Client) GetDeposits(ctx context.Context, limit int) ([]*DepositRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	raw, err := c.rdb.LRange(ctx, DepositsKey(c.instanceName), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read deposits from Redis: %w", err)
	}

	deposits := make([]*DepositRecord, 0, len(raw))
	for _, item := range raw {
		var rec DepositRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deposit record: %w", err)
		}
		deposits = append(deposits, &rec)
	}
	return deposits, nil
}

// DepositSubscription represents an active Pub/Sub subscription to deposit events.
// Caller must call Close() when done to clean up resources.
type DepositSubscription struct {
	events <-chan *DepositRecord
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of deposit events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *DepositSubscription) Events() <-chan *DepositRecord {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - bad messages are skipped.
func (s *DepositSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *DepositSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeDepositEvents subscribes to deposit events for this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// The subscription is confirmed with Redis before returning, so deposits
// published after this call are delivered (at-most-once, buffered to 10).
func (c *Client) SubscribeDepositEvents(ctx context.Context) (*DepositSubscription, error) {
	channel := DepositEventsChannel(c.instanceName)
	pubsub := c.rdb.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan *DepositRecord, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var rec DepositRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal deposit event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &rec:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &DepositSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
