// Package metrics writes per-tick simulation metrics to InfluxDB so an
// operator can chart solver latency, backlog, and fleet utilisation over the
// course of a run (spec §4.I, §9).
package metrics

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/terminal-bench/glp-fleet/internal/orchestrator"
)

// Config configures the InfluxDB connection.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Sink writes orchestrator.TickPoint values as InfluxDB points, satisfying
// orchestrator.MetricsSink.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

// New constructs a Sink. The underlying client is lazily connected on first
// write, matching the influxdb-client-go non-blocking connect model.
func New(cfg Config) *Sink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
		org:      cfg.Org,
	}
}

// Close flushes pending writes and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}

// WriteTick implements orchestrator.MetricsSink.
func (s *Sink) WriteTick(ctx context.Context, tp orchestrator.TickPoint) error {
	p := influxdb2.NewPoint(
		"sim_tick",
		map[string]string{
			"solver_strategy": tp.SolverStrategy,
		},
		map[string]interface{}{
			"tick":               tp.Tick,
			"pending_orders":     tp.PendingOrders,
			"overdue_orders":     tp.OverdueOrders,
			"available_vehicles": tp.AvailableVehicles,
			"solver_duration_ms": tp.SolverDurationMs,
		},
		tp.SimTime,
	)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("metrics: write tick point: %w", err)
	}
	return nil
}
