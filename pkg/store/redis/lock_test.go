package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDistributedLock_SingleInstance(t *testing.T) {
	_, client := newTestClient(t)
	lock := NewDistributedLock(client, "test")
	ctx := context.Background()

	acquired, err := lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, lock.IsHeld())

	require.NoError(t, lock.Unlock(ctx))
	assert.False(t, lock.IsHeld())
}

func TestDistributedLock_MultipleInstances(t *testing.T) {
	_, client := newTestClient(t)
	lock1 := NewDistributedLock(client, "multi")
	lock2 := NewDistributedLock(client, "multi")
	ctx := context.Background()

	acquired, err := lock1.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, acquired, "second lock should not be acquired")

	require.NoError(t, lock1.Unlock(ctx))

	acquired, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, lock2.Unlock(ctx))
}

func TestDistributedLock_UnlockDoesNotReleaseForeignLock(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewDistributedLock(client, "foreign")
	ctx := context.Background()

	_, err := lock.TryLock(ctx)
	require.NoError(t, err)

	// another owner took over after expiry
	mr.Set("lock:foreign", "someone-else")

	require.NoError(t, lock.Unlock(ctx))
	value, err := mr.Get("lock:foreign")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestDistributedLock_NilClient(t *testing.T) {
	lock := NewDistributedLock(nil, "local")
	ctx := context.Background()

	acquired, err := lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, lock.Unlock(ctx))
}
