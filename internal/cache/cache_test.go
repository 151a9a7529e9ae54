package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests talk to a real Redis instance and are skipped in short mode,
// matching the integration tests under tradeengine/tests/integration.

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	c := New(Config{Addr: "localhost:6379", TTL: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Skip("redis not reachable at localhost:6379")
	}
	return c
}

type sample struct {
	Tick int64
	Name string
}

func TestPutAndGetSnapshotRoundTrips(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := sample{Tick: 42, Name: "fleet"}
	require.NoError(t, c.PutSnapshot(ctx, "glp:test:roundtrip", in))

	var out sample
	found, err := c.GetSnapshot(ctx, "glp:test:roundtrip", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetSnapshotMissReturnsFalse(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var out sample
	found, err := c.GetSnapshot(ctx, "glp:test:does-not-exist", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
