package blackboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-instance", client.InstanceName())
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestBeginRun(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	oldRun := uuid.New().String()
	require.NoError(t, client.BeginRun(ctx, oldRun))
	require.NoError(t, client.RecordStatus(ctx, &StatusRecord{RunID: oldRun, GoblinID: 0}))
	_, err := client.RecordDeposit(ctx, &DepositRecord{RunID: oldRun, GoblinID: 0, Ore: 4, Total: 4})
	require.NoError(t, err)

	newRun := uuid.New().String()
	require.NoError(t, client.BeginRun(ctx, newRun))

	assert.False(t, mr.Exists(StatusKey("test-instance")))
	assert.False(t, mr.Exists(DepositsKey("test-instance")))
	assert.False(t, mr.Exists(TotalKey("test-instance")))

	current, err := client.CurrentRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, newRun, current)
}

func TestCurrentRun_NotStarted(t *testing.T) {
	client, _ := setupTestClient(t)

	_, err := client.CurrentRun(context.Background())
	assert.True(t, IsNotFound(err))
}

func TestRecordStatus(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("stores latest status per goblin", func(t *testing.T) {
		require.NoError(t, client.RecordStatus(ctx, &StatusRecord{GoblinID: 3, Pos: Position{X: 1, Y: -1}, Ore: 2, Fatigue: 4.5}))
		require.NoError(t, client.RecordStatus(ctx, &StatusRecord{GoblinID: 0, Pos: Position{X: 0, Y: 1}, Ore: 0, Fatigue: 1.5}))
		require.NoError(t, client.RecordStatus(ctx, &StatusRecord{GoblinID: 3, Pos: Position{X: 2, Y: -1}, Ore: 5, Fatigue: 8.0}))

		statuses, err := client.GetStatuses(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 2)

		assert.Equal(t, 0, statuses[0].GoblinID)
		assert.Equal(t, 3, statuses[1].GoblinID)
		assert.Equal(t, Position{X: 2, Y: -1}, statuses[1].Pos)
		assert.Equal(t, uint32(5), statuses[1].Ore)
		assert.InDelta(t, 8.0, statuses[1].Fatigue, 1e-9)
	})
}

func TestGetStatus(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.RecordStatus(ctx, &StatusRecord{RunID: "run-1", GoblinID: 4, Pos: Position{X: -2, Y: 3}, Ore: 1, Fatigue: 2.5}))

	t.Run("found", func(t *testing.T) {
		rec, err := client.GetStatus(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, Position{X: -2, Y: 3}, rec.Pos)
	})

	t.Run("not reported", func(t *testing.T) {
		rec, err := client.GetStatus(ctx, 1)
		assert.Nil(t, rec)
		assert.True(t, IsNotFound(err))
	})

	t.Run("malformed", func(t *testing.T) {
		mr.HSet(StatusKey("test-instance"), "7", "{not json")
		_, err := client.GetStatus(ctx, 7)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal status for goblin 7")
	})
}

func TestGetStatuses_Empty(t *testing.T) {
	client, _ := setupTestClient(t)

	statuses, err := client.GetStatuses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestGetStatuses_Malformed(t *testing.T) {
	client, mr := setupTestClient(t)

	mr.HSet(StatusKey("test-instance"), "1", "{not json")

	_, err := client.GetStatuses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal status for goblin 1")
}

func TestRecordDeposit(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	amounts := []uint32{7, 0, 3, 12}
	var want uint64
	for i, ore := range amounts {
		want += uint64(ore)
		total, err := client.RecordDeposit(ctx, &DepositRecord{GoblinID: i, Ore: ore, Total: want})
		require.NoError(t, err)
		assert.Equal(t, want, total)
	}

	total, err := client.GetTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(22), total)

	deposits, err := client.GetDeposits(ctx, 0)
	require.NoError(t, err)
	require.Len(t, deposits, 4)
	assert.Equal(t, uint32(7), deposits[0].Ore)
	assert.Equal(t, uint64(22), deposits[3].Total)

	latest, err := client.GetDeposits(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 2, latest[0].GoblinID)
	assert.Equal(t, 3, latest[1].GoblinID)
}

func TestGetTotal_Missing(t *testing.T) {
	client, _ := setupTestClient(t)

	total, err := client.GetTotal(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubscribeDepositEvents(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.SubscribeDepositEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	_, err = client.RecordDeposit(ctx, &DepositRecord{RunID: "run-1", GoblinID: 2, Ore: 7, Total: 7})
	require.NoError(t, err)

	select {
	case rec := <-sub.Events():
		require.NotNil(t, rec)
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, 2, rec.GoblinID)
		assert.Equal(t, uint32(7), rec.Ore)
	case <-ctx.Done():
		t.Fatal("timed out waiting for deposit event")
	}
}

func TestSubscriptionErrorChannel(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.SubscribeDepositEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(DepositEventsChannel("test-instance"), "not json")

	select {
	case err := <-sub.Errors():
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal deposit event")
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscription error")
	}
}

func TestSubscriptionClose(t *testing.T) {
	client, _ := setupTestClient(t)

	sub, err := client.SubscribeDepositEvents(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Close")
	}
}

func TestInstanceNamespacing(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := NewClient(&redis.Options{Addr: mr.Addr()}, "alpha")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewClient(&redis.Options{Addr: mr.Addr()}, "beta")
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	_, err = a.RecordDeposit(ctx, &DepositRecord{GoblinID: 1, Ore: 5, Total: 5})
	require.NoError(t, err)

	totalA, err := a.GetTotal(ctx)
	require.NoError(t, err)
	totalB, err := b.GetTotal(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), totalA)
	assert.Zero(t, totalB)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(redis.Nil))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(context.Canceled))
}
