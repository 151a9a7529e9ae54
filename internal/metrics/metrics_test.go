package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/orchestrator"
)

func TestWriteTickAgainstLiveInflux(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping influxdb integration test in short mode")
	}
	s := New(Config{
		URL:    "http://localhost:8086",
		Token:  "test-token",
		Org:    "glp-fleet",
		Bucket: "sim",
	})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := s.WriteTick(ctx, orchestrator.TickPoint{
		Tick:              1,
		SimTime:           time.Now(),
		PendingOrders:     3,
		OverdueOrders:     0,
		AvailableVehicles: 5,
		SolverStrategy:    "sih",
		SolverDurationMs:  12,
	})
	if err != nil {
		t.Skip("influxdb not reachable at localhost:8086")
	}
	require.NoError(t, err)
}
