// Package orchestrator runs the simulation tick loop: it advances
// Environment time, drains due events, executes each vehicle's current
// plan action by action, and periodically invokes the solver for a replan.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/eventqueue"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/plan"
	"github.com/terminal-bench/glp-fleet/internal/solver"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// Notifier fans tick-level domain occurrences out to external subscribers;
// satisfied by pkg/eventbus.Client. Best-effort: the tick loop never blocks
// or fails because of it (spec §4.G).
type Notifier interface {
	Publish(subject string, payload interface{}) error
}

// MetricsSink records one data point per tick; satisfied by
// internal/metrics.Sink.
type MetricsSink interface {
	WriteTick(ctx context.Context, point TickPoint) error
}

// LeaderElector reports whether this orchestrator instance currently holds
// the simulation lock; satisfied by internal/leader.Elector. A nil
// LeaderElector means "always leader", used in single-instance deployments.
type LeaderElector interface {
	IsLeader() bool
}

// TickPoint is one tick's worth of observability data (spec §4.G, §6).
type TickPoint struct {
	Tick                int64
	SimTime             time.Time
	PendingOrders       int
	OverdueOrders       int
	AvailableVehicles   int
	SolverStrategy      string
	SolverDurationMs    int64
}

// Config tunes the tick loop's cadence and replanning triggers (spec §4.G).
type Config struct {
	// TickIntervalMs is the real wall-clock delay between ticks; adjustable
	// at runtime via SetSpeed (spec §9: clamp to [50,10000]ms).
	TickIntervalMs int64

	// StepMinutes is how much simulated time a single tick advances
	// (spec §4.G step 6: "advance sim_time by step_minutes, default 5").
	StepMinutes time.Duration

	// ReplanEveryTicks forces a replan at least this often even with no
	// triggering event (tick-based trigger).
	ReplanEveryTicks int64

	// ReplanEveryDuration forces a replan at least this often in simulated
	// time (time-based trigger).
	ReplanEveryDuration time.Duration
}

// DefaultConfig returns the reference cadence (spec §6/§9).
func DefaultConfig() Config {
	return Config{
		TickIntervalMs:      200,
		StepMinutes:         5 * time.Minute,
		ReplanEveryTicks:    15,
		ReplanEveryDuration: 30 * time.Minute,
	}
}

// Orchestrator owns the tick loop.
type Orchestrator struct {
	cfg Config
	env *environment.Environment
	g   *grid.Grid
	sv  *solver.Solver
	q   *eventqueue.Queue

	notifier Notifier
	metrics  MetricsSink
	leader   LeaderElector
	log      *zap.Logger

	tickIntervalMs int64 // atomic
	paused         int32 // atomic bool

	planMu         sync.Mutex
	plans          map[uuid.UUID]*plan.Plan
	cursor         map[uuid.UUID]int
	needsReplan    bool
	tickCounter    int64
	lastReplanTime time.Time
	lastStrategy   string

	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New constructs an Orchestrator. leader/notifier/metrics may be nil to
// disable that concern (e.g. a single-instance deployment with no NATS).
func New(cfg Config, env *environment.Environment, g *grid.Grid, sv *solver.Solver, q *eventqueue.Queue, notifier Notifier, metrics MetricsSink, leader LeaderElector, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:            cfg,
		env:            env,
		g:              g,
		sv:             sv,
		q:              q,
		notifier:       notifier,
		metrics:        metrics,
		leader:         leader,
		log:            log,
		tickIntervalMs: cfg.TickIntervalMs,
		plans:          make(map[uuid.UUID]*plan.Plan),
		cursor:         make(map[uuid.UUID]int),
		needsReplan:    true, // the first tick always replans
		shutdown:       make(chan struct{}),
	}
}

// Start launches the tick loop goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			interval := time.Duration(atomic.LoadInt64(&o.tickIntervalMs)) * time.Millisecond
			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
				o.maybeTick(ctx)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-o.shutdown:
				timer.Stop()
				return
			}
		}
	}()
}

// Stop halts the tick loop and waits for it to exit.
func (o *Orchestrator) Stop() {
	close(o.shutdown)
	o.wg.Wait()
}

// SetSpeed changes the real-time delay between ticks, clamped to [50,10000]
// ms (spec §9).
func (o *Orchestrator) SetSpeed(ms int64) {
	if ms < 50 {
		ms = 50
	}
	if ms > 10000 {
		ms = 10000
	}
	atomic.StoreInt64(&o.tickIntervalMs, ms)
}

// Pause suspends tick processing; idempotent.
func (o *Orchestrator) Pause() { atomic.StoreInt32(&o.paused, 1) }

// Resume resumes tick processing; idempotent.
func (o *Orchestrator) Resume() { atomic.StoreInt32(&o.paused, 0) }

// IsPaused reports the current pause state.
func (o *Orchestrator) IsPaused() bool { return atomic.LoadInt32(&o.paused) == 1 }

// Speed returns the current real-time delay between ticks, in milliseconds.
func (o *Orchestrator) Speed() int64 { return atomic.LoadInt64(&o.tickIntervalMs) }

// TickCount returns the number of ticks processed so far.
func (o *Orchestrator) TickCount() int64 {
	o.planMu.Lock()
	defer o.planMu.Unlock()
	return o.tickCounter
}

// TriggerReplan marks the next tick as needing a fresh solve (spec §4.G
// event-triggered replanning: new order, blockage start, breakdown).
func (o *Orchestrator) TriggerReplan() {
	o.planMu.Lock()
	defer o.planMu.Unlock()
	o.needsReplan = true
}

func (o *Orchestrator) maybeTick(ctx context.Context) {
	if o.IsPaused() {
		return
	}
	if o.leader != nil && !o.leader.IsLeader() {
		return
	}
	o.tick(ctx)
}

func (o *Orchestrator) tick(ctx context.Context) {
	o.env.AdvanceTime(o.cfg.StepMinutes)
	simTime := o.env.SimTime()

	for _, ev := range o.q.DrainDue(simTime) {
		o.handleEvent(ev)
	}

	o.executeDueActions(simTime)

	o.planMu.Lock()
	o.tickCounter++
	tick := o.tickCounter
	due := o.needsReplan ||
		(o.cfg.ReplanEveryTicks > 0 && tick%o.cfg.ReplanEveryTicks == 0) ||
		(o.cfg.ReplanEveryDuration > 0 && simTime.Sub(o.lastReplanTime) >= o.cfg.ReplanEveryDuration)
	o.planMu.Unlock()

	var strategy string
	var solveDuration time.Duration
	if due {
		strategy, solveDuration = o.replan(ctx)
	}

	if o.notifier != nil {
		_ = o.notifier.Publish("checkpoint", map[string]interface{}{"tick": tick, "sim_time": simTime})
	}
	if o.metrics != nil {
		_ = o.metrics.WriteTick(ctx, TickPoint{
			Tick:              tick,
			SimTime:           simTime,
			PendingOrders:     len(o.env.PendingOrders()),
			OverdueOrders:     len(o.env.OverdueOrders()),
			AvailableVehicles: len(o.env.AvailableVehicles()),
			SolverStrategy:    strategy,
			SolverDurationMs:  solveDuration.Milliseconds(),
		})
	}
}

func (o *Orchestrator) handleEvent(ev *eventqueue.Event) {
	switch ev.Type {
	case eventqueue.EventOrderArrival, eventqueue.EventBlockageStart, eventqueue.EventVehicleBreakdown:
		o.TriggerReplan()
	}
	if o.notifier != nil {
		_ = o.notifier.Publish(string(ev.Type), ev.Payload)
	}
}

// executeDueActions applies, in order, every action of each vehicle's current
// plan whose ExpectedEnd has arrived, mutating the live Environment (spec
// §4.G). Each mutation is taken under the Environment's write lock so it
// can't interleave with a concurrent snapshot read of the same vehicle,
// order or depot (spec §5: tick-atomic snapshots).
func (o *Orchestrator) executeDueActions(simTime time.Time) {
	o.planMu.Lock()
	defer o.planMu.Unlock()

	for vehicleID, p := range o.plans {
		v, ok := o.env.FindVehicleByID(vehicleID)
		if !ok {
			continue
		}
		idx := o.cursor[vehicleID]
		for idx < len(p.Actions) {
			a := p.Actions[idx]
			if a.ExpectedEnd.After(simTime) {
				break
			}

			var order *model.Order
			var depot *model.Depot
			switch a.Type {
			case plan.ActionServe:
				order, _ = o.env.FindOrderByID(a.OrderID)
			case plan.ActionReload, plan.ActionRefuel:
				depot, _ = o.env.FindDepotByID(a.DepotID)
			}

			o.env.Lock()
			applyAction(v, order, depot, a)
			o.env.Unlock()
			idx++
		}
		o.cursor[vehicleID] = idx
	}
}

func applyAction(v *model.Vehicle, order *model.Order, depot *model.Depot, a plan.Action) {
	switch a.Type {
	case plan.ActionDrive:
		if len(a.Path) > 0 {
			dist := units.NewDistance(float64(len(a.Path) - 1))
			v.FuelGal = v.FuelGal.Sub(v.FuelCostForDistance(dist))
			v.Position = a.Path[len(a.Path)-1]
		}
		v.Status = model.StatusDriving
	case plan.ActionServe:
		if order != nil {
			m3 := a.ServeM3.Min(v.GLPM3).Min(order.RemainingM3)
			v.GLPM3 = v.GLPM3.Sub(m3)
			order.Deliver(v.ID, m3, a.ExpectedEnd)
		}
		v.Status = model.StatusServing
	case plan.ActionReload:
		if depot != nil {
			got := depot.Withdraw(v.Type.CapacityM3.Sub(v.GLPM3))
			v.GLPM3 = v.GLPM3.Add(got)
		}
		v.Status = model.StatusReloading
	case plan.ActionRefuel:
		v.FuelGal = v.Type.FuelCapacity
		v.Status = model.StatusRefueling
	case plan.ActionIdle:
		v.Status = model.StatusIdle
	}
}

// replan clones the environment, solves against the clone, and swaps in the
// resulting plans (spec §4.D: "the solver never mutates the live
// environment").
func (o *Orchestrator) replan(ctx context.Context) (string, time.Duration) {
	clone := o.env.Clone()
	start := time.Now()
	sol, strategy := o.sv.Solve(ctx, clone, o.g)
	elapsed := time.Since(start)

	o.planMu.Lock()
	o.plans = sol.Plans
	o.cursor = make(map[uuid.UUID]int, len(sol.Plans))
	o.needsReplan = false
	o.lastReplanTime = o.env.SimTime()
	o.lastStrategy = strategy
	o.planMu.Unlock()

	o.log.Debug("replanned", zap.String("strategy", strategy), zap.Duration("elapsed", elapsed))
	return strategy, elapsed
}

// LastStrategy returns the solver strategy used by the most recent replan.
func (o *Orchestrator) LastStrategy() string {
	o.planMu.Lock()
	defer o.planMu.Unlock()
	return o.lastStrategy
}

// PlanFor returns a copy of a vehicle's current plan, if any.
func (o *Orchestrator) PlanFor(vehicleID uuid.UUID) (*plan.Plan, bool) {
	o.planMu.Lock()
	defer o.planMu.Unlock()
	p, ok := o.plans[vehicleID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}
