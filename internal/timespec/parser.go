// Package timespec parses the --since and --until values accepted by the CLI.
package timespec

import (
	"fmt"
	"time"
)

// Parse converts a time specification into Unix milliseconds relative to the current time.
// Accepts a Go duration meaning "that long ago" ("90s", "1h30m") or an RFC3339 timestamp.
func Parse(spec string) (int64, error) {
	return ParseAt(spec, time.Now())
}

// ParseAt is Parse with an explicit current time.
func ParseAt(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration %s (durations count back from now)", spec)
		}
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use a duration like '5m' or RFC3339 like '2026-10-18T13:00:00Z')", spec)
}

// ParseRange parses --since and --until together.
// Zero means no bound for that end. Both bounds set requires since < until.
func ParseRange(since, until string) (int64, int64, error) {
	now := time.Now()

	var sinceMs, untilMs int64
	var err error

	if since != "" {
		if sinceMs, err = ParseAt(since, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		if untilMs, err = ParseAt(until, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMs > 0 && untilMs > 0 && sinceMs >= untilMs {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMs, untilMs, nil
}
