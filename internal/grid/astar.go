package grid

import (
	"container/heap"
	"errors"
	"time"

	"github.com/terminal-bench/glp-fleet/internal/model"
)

// ErrNoPath is returned when no feasible route exists between two cells at
// the given departure time (spec §4.A edge case: vehicle fully boxed in by
// blockages).
var ErrNoPath = errors.New("grid: no path found")

// BlockageSource reports which cells are blocked at a given instant. The
// pathfinder queries it for each neighbour it considers so that a route correctly
// threads through cells that become free again after a blockage ends.
type BlockageSource interface {
	BlockedAt(pos model.Position, t time.Time) bool
}

// Path is the result of a successful search: the ordered cells from start to
// goal (inclusive) and the total travel duration, derived from the number of
// cells crossed over the grid's configured vehicle speed (spec §3).
type Path struct {
	Cells    []model.Position
	Duration time.Duration
}

// minutesPerCell converts one km-cell of distance into minutes of travel at
// g.SpeedKPH (spec §3: "time-to-traverse is distance / vehicle_speed").
func (g *Grid) minutesPerCell() float64 {
	return 60.0 / g.SpeedKPH
}

type node struct {
	pos      model.Position
	g        int // cells travelled from start
	f        int // g + heuristic
	parent   int // index into the closed slice, -1 for start
	index    int // heap index
}

type nodeHeap []*node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) { n := x.(*node); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// FindPath runs A* with the Manhattan-distance heuristic from start to goal,
// departing at depart, treating any cell reported blocked at the simulated
// arrival time as impassable (spec §4.A).
func (g *Grid) FindPath(start, goal model.Position, depart time.Time, blockages BlockageSource) (*Path, error) {
	if start == goal {
		return &Path{Cells: []model.Position{start}, Duration: 0}, nil
	}
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, ErrNoPath
	}

	open := &nodeHeap{}
	heap.Init(open)

	type visitKey = model.Position
	closed := make(map[visitKey]*node)

	startNode := &node{pos: start, g: 0, f: start.Manhattan(goal), parent: -1}
	closed[start] = startNode
	heap.Push(open, startNode)

	cameFrom := make(map[visitKey]visitKey)
	perCell := g.minutesPerCell()

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)

		if current.pos == goal {
			return reconstruct(start, goal, current.g, cameFrom, perCell), nil
		}

		arrivalTime := depart.Add(time.Duration(float64(current.g+1) * perCell * float64(time.Minute)))
		for _, next := range g.Neighbors(current.pos) {
			if blockages != nil && blockages.BlockedAt(next, arrivalTime) {
				continue
			}
			tentativeG := current.g + 1
			existing, seen := closed[next]
			if seen && existing.g <= tentativeG {
				continue
			}
			n := &node{pos: next, g: tentativeG, f: tentativeG + next.Manhattan(goal)}
			closed[next] = n
			cameFrom[next] = current.pos
			heap.Push(open, n)
		}
	}

	return nil, ErrNoPath
}

func reconstruct(start, goal model.Position, totalCells int, cameFrom map[model.Position]model.Position, perCell float64) *Path {
	cells := make([]model.Position, 0, totalCells+1)
	cur := goal
	for cur != start {
		cells = append(cells, cur)
		cur = cameFrom[cur]
	}
	cells = append(cells, start)
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	duration := time.Duration(float64(totalCells) * perCell * float64(time.Minute))
	return &Path{Cells: cells, Duration: duration}
}
