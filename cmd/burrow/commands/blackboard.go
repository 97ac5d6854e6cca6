package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/burrow/internal/printer"
	"github.com/dyluth/burrow/pkg/blackboard"
	"github.com/redis/go-redis/v9"
)

// defaultRedisURL is where watch and hoard look for a ledger when --redis-url is not given.
const defaultRedisURL = "redis://localhost:6379"

// connectBlackboard parses redisURL, creates a client for instanceName and verifies connectivity.
// Failures are printed and returned as printer errors.
func connectBlackboard(ctx context.Context, redisURL, instanceName string) (*blackboard.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, printer.Error(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse %q: %v", redisURL, err),
			[]string{"Use the form redis://host:port/db, e.g. --redis-url redis://localhost:6379"},
		)
	}

	client, err := blackboard.NewClient(redisOpts, instanceName)
	if err != nil {
		return nil, printer.Error(
			"invalid instance name",
			err.Error(),
			[]string{"Pass a non-empty name:\n  --instance default"},
		)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			map[string]string{
				"Instance": instanceName,
				"Error":    err.Error(),
			},
			[]string{
				"Start a local Redis:\n  docker run --rm -p 6379:6379 redis:7-alpine",
				"Or point at another server with --redis-url",
			},
		)
	}

	return client, nil
}
