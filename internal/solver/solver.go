// Package solver turns a snapshot of the Environment into a Solution: a
// primary Sequential Insertion Heuristic (SIH), with a randomized greedy
// fallback guarded by a circuit breaker that trips once the SIH has
// repeatedly overrun its wall-clock budget.
package solver

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/plan"
	"github.com/terminal-bench/glp-fleet/pkg/circuit"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// Config tunes the solver's cost weights and time budget (spec §4.D).
type Config struct {
	// Alpha/Beta/Gamma weight insertion cost = Alpha*distance + Beta*delay +
	// Gamma*waiting (spec §4.D).
	Alpha float64
	Beta  float64
	Gamma float64

	// Timeout bounds one SIH attempt; exceeding it counts as a breaker
	// failure (spec §5, §7).
	Timeout time.Duration

	// ServeMinutes is the fixed dwell time a SERVE action takes regardless
	// of delivered volume (spec §4.C: 15 minutes).
	ServeMinutes time.Duration

	// ReloadMinutes is the fixed dwell time a RELOAD action takes (spec
	// §4.C: 15 minutes).
	ReloadMinutes time.Duration

	// RefuelMinutes is the fixed dwell time a REFUEL action takes (spec
	// §4.C: 1 minute).
	RefuelMinutes time.Duration

	// RandomChunks are the GLP quantities (m3) the fallback solver tries to
	// assign per stop, largest first (spec §4.D fallback).
	RandomChunks []float64

	// BreakerMaxFailures/BreakerCooldown configure the circuit breaker
	// guarding the SIH (spec §5).
	BreakerMaxFailures int
	BreakerCooldown    time.Duration
}

// DefaultConfig returns the reference tuning (spec §6).
func DefaultConfig() Config {
	return Config{
		Alpha:              0.6,
		Beta:               0.3,
		Gamma:              0.1,
		Timeout:            30 * time.Second,
		ServeMinutes:       15 * time.Minute,
		ReloadMinutes:      15 * time.Minute,
		RefuelMinutes:      1 * time.Minute,
		RandomChunks:       []float64{25, 20, 15, 10, 5},
		BreakerMaxFailures: 3,
		BreakerCooldown:    2 * time.Minute,
	}
}

// Solver computes Solutions against a Grid-shaped Environment snapshot.
type Solver struct {
	cfg     Config
	breaker *circuit.Breaker
}

// New constructs a Solver.
func New(cfg Config) *Solver {
	return &Solver{
		cfg: cfg,
		breaker: circuit.New(circuit.Config{
			Name:        "solver-sih",
			MaxFailures: cfg.BreakerMaxFailures,
			Timeout:     cfg.BreakerCooldown,
			HalfOpenMax: 1,
		}),
	}
}

// Solve runs the SIH under the breaker; if the breaker is open (repeated
// recent timeouts) or the attempt itself fails or overruns its budget, it
// falls back to the randomized greedy solver so the orchestrator always
// receives a usable Solution (spec §4.D, §7). The randomized fallback
// records deliveries on the orders it plans against, so callers must pass a
// throwaway env.Clone() and apply the resulting Solution to the live
// Environment themselves.
func (s *Solver) Solve(ctx context.Context, env *environment.Environment, g *grid.Grid) (*plan.Solution, string) {
	var sol *plan.Solution

	err := s.breaker.Execute(ctx, func() error {
		sihCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		built, buildErr := s.sequentialInsertion(sihCtx, env, g)
		if buildErr != nil {
			return buildErr
		}
		sol = built
		return nil
	})
	if err == nil {
		return sol, "sih"
	}

	return s.randomizedGreedy(env, g), "randomized_fallback"
}

// BreakerState exposes the circuit breaker's state.
func (s *Solver) BreakerState() circuit.State { return s.breaker.State() }

type routeState struct {
	pos  model.Position
	time time.Time
	fuel units.Fuel
	glp  units.Volume
	vt   model.VehicleType
}

// sequentialInsertion sorts pending orders by tightest delivery window first
// (spec §4.D step 1: "most critical first"), then for each order picks the
// vehicle whose insertion cost is lowest among those that can feasibly reach
// it, inserting REFUEL/RELOAD stops as needed (spec §4.D steps 2-3).
func (s *Solver) sequentialInsertion(ctx context.Context, env *environment.Environment, g *grid.Grid) (*plan.Solution, error) {
	orders := env.PendingOrders()
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].WindowMinutes() < orders[j].WindowMinutes()
	})

	vehicles := env.AvailableVehicles()
	mainDepot, hasMain := env.MainDepot()

	states := make(map[uuid.UUID]*routeState, len(vehicles))
	sol := plan.NewSolution()
	now := env.SimTime()
	for _, v := range vehicles {
		states[v.ID] = &routeState{pos: v.Position, time: now, fuel: v.FuelGal, glp: v.GLPM3, vt: v.Type}
	}

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := order.RemainingM3
		for remaining.Float64() > 1e-9 {
			delivered, err := s.bestInsertion(g, env, vehicles, states, sol, order, remaining, mainDepot, hasMain)
			if err != nil {
				break // no feasible vehicle left for this order this round
			}
			remaining = remaining.Sub(delivered)
		}
	}

	for _, v := range vehicles {
		st := states[v.ID]
		p := sol.PlanFor(v.ID)
		if p.IsEmpty() || !hasMain {
			continue
		}
		appendDriveTo(g, env, p, st, mainDepot.Position)
	}

	return sol, nil
}

// bestInsertion finds the lowest-cost feasible vehicle for (part of) order
// and commits the corresponding actions to its plan, returning how much GLP
// it delivered.
func (s *Solver) bestInsertion(g *grid.Grid, env *environment.Environment, vehicles []*model.Vehicle, states map[uuid.UUID]*routeState, sol *plan.Solution, order *model.Order, remaining units.Volume, mainDepot *model.Depot, hasMain bool) (units.Volume, error) {
	type candidate struct {
		vehicle  *model.Vehicle
		cost     float64
		path     *grid.Path
		fuel     units.Fuel
		waitMin  float64
		delivery units.Volume
	}

	var best *candidate
	needsFuel := false
	for _, v := range vehicles {
		st := states[v.ID]
		if st.glp.IsZero() {
			continue // handled by the reload branch below
		}
		path, err := g.FindPath(st.pos, order.Position, st.time, env)
		if err != nil {
			continue
		}
		fuelCost := units.FuelForDistance(units.NewDistance(float64(len(path.Cells)-1)), st.vt.TareTons, st.glp)
		if st.fuel.LessThan(fuelCost) {
			needsFuel = true
			continue
		}
		driveMinutes := path.Duration.Minutes()
		arrival := st.time.Add(path.Duration)
		waitMin := 0.0
		if arrival.Before(order.ArriveAt) {
			waitMin = order.ArriveAt.Sub(arrival).Minutes()
		}
		delivery := remaining.Min(st.glp)
		cost := s.cfg.Alpha*driveMinutes + s.cfg.Beta*(driveMinutes+waitMin+s.cfg.ServeMinutes.Minutes()) + s.cfg.Gamma*waitMin
		if best == nil || cost < best.cost {
			best = &candidate{vehicle: v, cost: cost, path: path, fuel: fuelCost, waitMin: waitMin, delivery: delivery}
		}
	}

	if best == nil {
		if !hasMain {
			return units.ZeroVolume, errNoFeasibleVehicle
		}
		// Reload an empty vehicle, or refuel one that's too low, at the main
		// depot and retry once (spec §4.D step 3).
		for _, v := range vehicles {
			st := states[v.ID]
			p := sol.PlanFor(v.ID)
			switch {
			case st.glp.IsZero():
				appendDriveTo(g, env, p, st, mainDepot.Position)
				appendReload(p, st, mainDepot, s.cfg.ReloadMinutes)
			case needsFuel && mainDepot.CanRefuel:
				appendDriveTo(g, env, p, st, mainDepot.Position)
				appendRefuel(p, st, mainDepot, s.cfg.RefuelMinutes)
			default:
				continue
			}
			return s.bestInsertion(g, env, vehicles, states, sol, order, remaining, mainDepot, hasMain)
		}
		return units.ZeroVolume, errNoFeasibleVehicle
	}

	v := best.vehicle
	st := states[v.ID]
	p := sol.PlanFor(v.ID)

	start := st.time
	driveEnd := start.Add(best.path.Duration)
	if len(best.path.Cells) > 1 {
		p.Append(plan.Action{Type: plan.ActionDrive, ExpectedStart: start, ExpectedEnd: driveEnd, Path: best.path.Cells})
	}
	serveStart := driveEnd
	if best.waitMin > 0 {
		serveStart = serveStart.Add(time.Duration(best.waitMin) * time.Minute)
	}
	serveEnd := serveStart.Add(s.cfg.ServeMinutes)
	p.Append(plan.Action{Type: plan.ActionServe, ExpectedStart: serveStart, ExpectedEnd: serveEnd, OrderID: order.ID, ServeM3: best.delivery})

	st.pos = order.Position
	st.time = serveEnd
	st.fuel = st.fuel.Sub(best.fuel)
	st.glp = st.glp.Sub(best.delivery)

	return best.delivery, nil
}

func appendDriveTo(g *grid.Grid, env *environment.Environment, p *plan.Plan, st *routeState, dest model.Position) {
	if st.pos == dest {
		return
	}
	path, err := g.FindPath(st.pos, dest, st.time, env)
	if err != nil {
		return
	}
	end := st.time.Add(path.Duration)
	p.Append(plan.Action{Type: plan.ActionDrive, ExpectedStart: st.time, ExpectedEnd: end, Path: path.Cells})
	st.pos = dest
	st.time = end
}

func appendReload(p *plan.Plan, st *routeState, depot *model.Depot, dwell time.Duration) {
	end := st.time.Add(dwell)
	p.Append(plan.Action{Type: plan.ActionReload, ExpectedStart: st.time, ExpectedEnd: end, DepotID: depot.ID})
	st.glp = st.vt.CapacityM3
	st.time = end
}

func appendRefuel(p *plan.Plan, st *routeState, depot *model.Depot, dwell time.Duration) {
	end := st.time.Add(dwell)
	p.Append(plan.Action{Type: plan.ActionRefuel, ExpectedStart: st.time, ExpectedEnd: end, DepotID: depot.ID})
	st.fuel = st.vt.FuelCapacity
	st.time = end
}

// randomizedGreedy assigns available vehicles to pending orders in random
// order, in descending chunk sizes, without insertion-cost optimisation
// (spec §4.D fallback). Solve uses it whenever the SIH attempt fails or
// overruns its budget, and while the SIH breaker is open.
func (s *Solver) randomizedGreedy(env *environment.Environment, g *grid.Grid) *plan.Solution {
	sol := plan.NewSolution()
	vehicles := env.AvailableVehicles()
	orders := env.PendingOrders()
	mainDepot, hasMain := env.MainDepot()
	now := env.SimTime()

	rng := rand.New(rand.NewSource(now.UnixNano()))
	rng.Shuffle(len(vehicles), func(i, j int) { vehicles[i], vehicles[j] = vehicles[j], vehicles[i] })
	rng.Shuffle(len(orders), func(i, j int) { orders[i], orders[j] = orders[j], orders[i] })

	states := make(map[uuid.UUID]*routeState, len(vehicles))
	for _, v := range vehicles {
		states[v.ID] = &routeState{pos: v.Position, time: now, fuel: v.FuelGal, glp: v.GLPM3, vt: v.Type}
	}

	for _, v := range vehicles {
		st := states[v.ID]
		p := sol.PlanFor(v.ID)
		for _, order := range orders {
			if order.Delivered() {
				continue
			}
			for _, chunk := range s.cfg.RandomChunks {
				want := units.NewVolume(chunk).Min(order.RemainingM3)
				if want.IsZero() {
					continue
				}
				if st.glp.IsZero() && hasMain {
					appendDriveTo(g, env, p, st, mainDepot.Position)
					appendReload(p, st, mainDepot, s.cfg.ReloadMinutes)
				}
				deliver := want.Min(st.glp)
				if deliver.IsZero() {
					continue
				}
				path, err := g.FindPath(st.pos, order.Position, st.time, env)
				if err != nil {
					continue
				}
				fuelCost := units.FuelForDistance(units.NewDistance(float64(len(path.Cells)-1)), st.vt.TareTons, st.glp)
				if st.fuel.LessThan(fuelCost) {
					if hasMain && mainDepot.CanRefuel {
						appendDriveTo(g, env, p, st, mainDepot.Position)
						appendRefuel(p, st, mainDepot, s.cfg.RefuelMinutes)
						path, err = g.FindPath(st.pos, order.Position, st.time, env)
						if err != nil {
							continue
						}
						fuelCost = units.FuelForDistance(units.NewDistance(float64(len(path.Cells)-1)), st.vt.TareTons, st.glp)
					}
					if st.fuel.LessThan(fuelCost) {
						continue
					}
				}

				// Discard this chunk if delivering it would leave the vehicle
				// unable to make it back to the main depot afterwards (spec
				// §4.D fallback: "discards any vehicle whose route cannot be
				// made feasible").
				if hasMain {
					afterFuel := st.fuel.Sub(fuelCost)
					afterGLP := st.glp.Sub(deliver)
					returnPath, rerr := g.FindPath(order.Position, mainDepot.Position, st.time.Add(path.Duration), env)
					if rerr == nil {
						returnCost := units.FuelForDistance(units.NewDistance(float64(len(returnPath.Cells)-1)), st.vt.TareTons, afterGLP)
						if afterFuel.LessThan(returnCost) {
							continue
						}
					}
				}

				end := st.time.Add(path.Duration)
				if len(path.Cells) > 1 {
					p.Append(plan.Action{Type: plan.ActionDrive, ExpectedStart: st.time, ExpectedEnd: end, Path: path.Cells})
				}
				serveEnd := end.Add(s.cfg.ServeMinutes)
				p.Append(plan.Action{Type: plan.ActionServe, ExpectedStart: end, ExpectedEnd: serveEnd, OrderID: order.ID, ServeM3: deliver})
				order.Deliver(v.ID, deliver, serveEnd)
				st.pos = order.Position
				st.time = serveEnd
				st.fuel = st.fuel.Sub(fuelCost)
				st.glp = st.glp.Sub(deliver)
				break
			}
		}
		if hasMain && !p.IsEmpty() {
			appendDriveTo(g, env, p, st, mainDepot.Position)
		}
	}

	return sol
}

var errNoFeasibleVehicle = &noFeasibleVehicleError{}

type noFeasibleVehicleError struct{}

func (e *noFeasibleVehicleError) Error() string { return "solver: no feasible vehicle for order" }
