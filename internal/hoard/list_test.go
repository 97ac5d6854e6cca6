package hoard

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/burrow/internal/filter"
	"github.com/dyluth/burrow/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*blackboard.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// seedLedger writes a small run: goblins 0 and 2 report, goblin 2 deposits twice.
func seedLedger(t *testing.T, client *blackboard.Client) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, client.BeginRun(ctx, "run-abcdef123456"))
	require.NoError(t, client.RecordStatus(ctx, &blackboard.StatusRecord{RunID: "run-abcdef123456", GoblinID: 2, Pos: blackboard.Position{X: -1, Y: 4}, Ore: 1, Fatigue: 6}))
	require.NoError(t, client.RecordStatus(ctx, &blackboard.StatusRecord{RunID: "run-abcdef123456", GoblinID: 0, Pos: blackboard.Position{X: 3, Y: 3}, Ore: 0, Fatigue: 2}))

	for i, ore := range []uint32{7, 4} {
		_, err := client.RecordDeposit(ctx, &blackboard.DepositRecord{RunID: "run-abcdef123456", GoblinID: 2, Ore: ore, Total: uint64(7 + 4*i)})
		require.NoError(t, err)
	}
}

func TestListStatuses(t *testing.T) {
	t.Run("default format", func(t *testing.T) {
		client, _ := setupTestClient(t)
		seedLedger(t, client)

		var buf bytes.Buffer
		require.NoError(t, ListStatuses(context.Background(), client, OutputFormatDefault, &buf))

		out := buf.String()
		assert.Contains(t, out, "(run run-abcd)")
		assert.Contains(t, out, "(-1, 4)")
		assert.Contains(t, out, "2 goblins reporting, total ore: 11")
		assert.Less(t, strings.Index(out, "#0"), strings.Index(out, "#2"), "goblins are listed by id")
	})

	t.Run("jsonl format", func(t *testing.T) {
		client, _ := setupTestClient(t)
		seedLedger(t, client)

		var buf bytes.Buffer
		require.NoError(t, ListStatuses(context.Background(), client, OutputFormatJSONL, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)

		var first blackboard.StatusRecord
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, 0, first.GoblinID)
		assert.Equal(t, blackboard.Position{X: 3, Y: 3}, first.Pos)
	})

	t.Run("empty ledger", func(t *testing.T) {
		client, _ := setupTestClient(t)

		var buf bytes.Buffer
		require.NoError(t, ListStatuses(context.Background(), client, OutputFormatDefault, &buf))
		assert.Contains(t, buf.String(), "No goblins have reported")
	})

	t.Run("malformed status fails", func(t *testing.T) {
		client, mr := setupTestClient(t)
		mr.HSet(blackboard.StatusKey("test-instance"), "0", "garbage")

		err := ListStatuses(context.Background(), client, OutputFormatDefault, &bytes.Buffer{})
		require.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		client, _ := setupTestClient(t)

		err := ListStatuses(context.Background(), client, OutputFormat("yaml"), &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})
}

func TestListDeposits(t *testing.T) {
	client, _ := setupTestClient(t)
	seedLedger(t, client)
	ctx := context.Background()

	t.Run("all deposits", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ListDeposits(ctx, client, 0, nil, OutputFormatDefault, &buf))

		out := buf.String()
		assert.Contains(t, out, "Goblin #2 deposited 7 ore. Total: 7")
		assert.Contains(t, out, "Goblin #2 deposited 4 ore. Total: 11")
	})

	t.Run("limited jsonl", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ListDeposits(ctx, client, 1, nil, OutputFormatJSONL, &buf))

		var rec blackboard.DepositRecord
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
		assert.Equal(t, uint32(4), rec.Ore)
		assert.Equal(t, uint64(11), rec.Total)
	})

	t.Run("filtered and limited", func(t *testing.T) {
		_, err := client.RecordDeposit(ctx, &blackboard.DepositRecord{RunID: "run-abcdef123456", GoblinID: 0, Ore: 9, Total: 20})
		require.NoError(t, err)

		two := 2
		var buf bytes.Buffer
		require.NoError(t, ListDeposits(ctx, client, 1, &filter.Criteria{GoblinID: &two}, OutputFormatJSONL, &buf))

		var rec blackboard.DepositRecord
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
		assert.Equal(t, 2, rec.GoblinID, "the limit applies after filtering")
		assert.Equal(t, uint32(4), rec.Ore)
	})

	t.Run("unknown format", func(t *testing.T) {
		err := ListDeposits(ctx, client, 0, nil, OutputFormat("csv"), &bytes.Buffer{})
		assert.Error(t, err)
	})
}
