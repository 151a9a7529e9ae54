package leader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises real leader election against a local etcd instance; skipped in
// short mode like the other infra-backed integration tests.

func newTestElector(t *testing.T, nodeID string) *Elector {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping etcd integration test in short mode")
	}
	cfg := DefaultConfig([]string{"localhost:2379"})
	cfg.ElectionKey = "glp-fleet/test-leader"
	e, err := New(cfg, nodeID, nil)
	if err != nil {
		t.Skip("etcd not reachable at localhost:2379")
	}
	return e
}

func TestSingleElectorBecomesLeader(t *testing.T) {
	e := newTestElector(t, "node-a")
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	e.Campaign(context.Background())

	require.Eventually(t, e.IsLeader, 3*time.Second, 50*time.Millisecond)
	_ = ctx
}

func TestLosingLeaderStopsBeingLeader(t *testing.T) {
	e := newTestElector(t, "node-b")

	e.Campaign(context.Background())
	require.Eventually(t, e.IsLeader, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, e.Close())
	assert.False(t, e.IsLeader())
}
