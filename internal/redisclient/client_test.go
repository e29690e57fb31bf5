package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockIsExclusive(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 0, time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	unlock, err := client.Lock(ctx, "venue:test")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = client.Lock(waitCtx, "venue:test")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlockAgain, err := client.Lock(ctx, "venue:test")
	require.NoError(t, err)
	unlockAgain()
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 0, time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	missing, err := client.Get(ctx, "venue:test:missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, client.Set(ctx, "venue:test:menu", []byte(`[]`)))
	value, err := client.Get(ctx, "venue:test:menu")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
}

func TestIdempotencyKey(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 0, time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.SetIdempotencyKey(ctx, "evt-1", "ticket-1", time.Minute))
	exists, err := client.CheckIdempotencyKey(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSubscribeChangesSkipsOwnChanges(t *testing.T) {
	t.Skip("Integration test - requires redis")

	local, err := NewClient("localhost:6379", "", 0, time.Second)
	require.NoError(t, err)
	defer local.Close()
	remote, err := NewClient("localhost:6379", "", 0, time.Second)
	require.NoError(t, err)
	defer remote.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received := make(chan Change, 2)
	go func() {
		_ = local.SubscribeChanges(ctx, func(change Change) { received <- change })
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, local.PublishChange(ctx, "v1", "orders"))
	require.NoError(t, remote.PublishChange(ctx, "v1", "menu"))

	change := <-received
	assert.Equal(t, "menu", change.Topic)
	assert.Equal(t, remote.instanceID, change.Origin)
}
