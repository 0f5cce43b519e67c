// Package search implements PathSearch: the multimodal Dijkstra/A* engine
// over the (stop, incoming-line) state space described in spec.md §4.4.
package search

import (
	"container/heap"
	"os"
	"strconv"

	"github.com/transitplan/journeyplanner/internal/models"
	"github.com/transitplan/journeyplanner/internal/transitgraph"
)

// Options configures one search call. DisableTieBreak turns off the 2*p
// priority nudge described in spec.md §4.4/§9, which property tests use to
// verify admissibility without the non-admissible tie-break term
// interfering.
type Options struct {
	Heuristic       Heuristic
	ForbiddenLines  map[string]bool
	DisableTieBreak bool
	MaxExploredNodes int
}

// DefaultMaxExploredNodes mirrors the teacher's own explored-node safety
// cap (astar.go's getMaxExploredNodes), read from MAX_EXPLORED_NODES.
func DefaultMaxExploredNodes() int {
	if v := os.Getenv("MAX_EXPLORED_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 200000
}

// Engine runs PathSearch queries against one TransitGraph. A single Engine
// may be reused by concurrent queries: each Search call allocates its own
// open set and cost maps.
type Engine struct {
	graph *transitgraph.Graph
}

// New builds a PathSearch engine over the given graph.
func New(g *transitgraph.Graph) *Engine {
	return &Engine{graph: g}
}

type heapItem struct {
	state    models.SearchState
	g        int
	priority float64
	index    int
}

type priorityQueue []*heapItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	if pq[i].state.StopID != pq[j].state.StopID {
		return pq[i].state.StopID < pq[j].state.StopID
	}
	return pq[i].state.IncomingLine < pq[j].state.IncomingLine
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	it := x.(*heapItem)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[:n-1]
	return it
}

func stateKey(s models.SearchState) string { return s.StopID + "\x00" + s.IncomingLine }

// SearchFromStop runs PathSearch from a real origin stop s to destination
// d under the given options (stop-to-stop case of spec.md §4.4, also the
// testing `plan_stop_to_stop` operation of spec.md §6).
func (e *Engine) SearchFromStop(s, d string, opts Options) models.RawPath {
	origin := models.SearchState{StopID: s, IncomingLine: models.LineOrigin}
	seed := func(pq *priorityQueue, g map[string]int, pred map[string]models.SearchState) {
		for _, edge := range e.graph.Neighbors(s) {
			if opts.ForbiddenLines[edge.LineID] {
				continue
			}
			next := models.SearchState{StopID: edge.To, IncomingLine: edge.LineID}
			gCost := edge.TravelTime + edge.Headway
			key := stateKey(next)
			if existing, ok := g[key]; ok && gCost >= existing {
				continue
			}
			g[key] = gCost
			pred[key] = origin
			pos, _ := e.graph.StopPosition(edge.To)
			dPos, _ := e.graph.StopPosition(d)
			h := 0.0
			if opts.Heuristic != nil {
				h = opts.Heuristic.Estimate(pos.Position, dPos.Position)
			}
			heap.Push(pq, &heapItem{state: next, g: gCost, priority: float64(gCost) + h})
		}
	}
	return e.run(d, opts, seed)
}

// SearchFromVirtualOrigin runs PathSearch from the virtual-origin anchor
// (spec.md's ORIGIN sentinel) seeded with a boarding set, to destination
// d. This is the form the Planner uses for real user queries.
func (e *Engine) SearchFromVirtualOrigin(boarding []models.BoardingCandidate, d string, opts Options) models.RawPath {
	origin := models.SearchState{StopID: models.StopOrigin, IncomingLine: models.LineOrigin}
	seed := func(pq *priorityQueue, g map[string]int, pred map[string]models.SearchState) {
		for _, bc := range boarding {
			next := models.SearchState{StopID: bc.StopID, IncomingLine: models.LineWalk}
			key := stateKey(next)
			if existing, ok := g[key]; ok && bc.WalkTimeSec >= existing {
				continue
			}
			g[key] = bc.WalkTimeSec
			pred[key] = origin
			pos, _ := e.graph.StopPosition(bc.StopID)
			dPos, _ := e.graph.StopPosition(d)
			h := 0.0
			if opts.Heuristic != nil {
				h = opts.Heuristic.Estimate(pos.Position, dPos.Position)
			}
			heap.Push(pq, &heapItem{state: next, g: bc.WalkTimeSec, priority: float64(bc.WalkTimeSec) + h})
		}
	}
	return e.run(d, opts, seed)
}

// run holds the relaxation loop common to both entry points: seed builds
// the initial priority-queue entries and the g/pred maps appropriately for
// the stop-origin or virtual-origin case, then control proceeds
// identically from there.
func (e *Engine) run(d string, opts Options, seed func(*priorityQueue, map[string]int, map[string]models.SearchState)) models.RawPath {
	maxNodes := opts.MaxExploredNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxExploredNodes()
	}

	g := make(map[string]int)
	pred := make(map[string]models.SearchState)

	pq := &priorityQueue{}
	heap.Init(pq)
	seed(pq, g, pred)

	dPos, _ := e.graph.StopPosition(d)

	explored := 0
	for pq.Len() > 0 && explored < maxNodes {
		cur := heap.Pop(pq).(*heapItem)
		explored++

		key := stateKey(cur.state)
		if best, ok := g[key]; ok && cur.g > best {
			continue // stale entry, a better path to this state already won
		}

		if cur.state.StopID == d {
			return reconstruct(cur.state, cur.g, pred)
		}

		for _, edge := range e.graph.Neighbors(cur.state.StopID) {
			if opts.ForbiddenLines[edge.LineID] {
				continue
			}

			// Transfer penalty: the headway of the edge being taken (the
			// line switched onto), charged only between two real lines.
			// The headway of the line being left is not used.
			penalty := 0
			if isRealLine(cur.state.IncomingLine) && isRealLine(edge.LineID) && edge.LineID != cur.state.IncomingLine {
				penalty = edge.Headway
			}

			gPrime := cur.g + edge.TravelTime + penalty
			next := models.SearchState{StopID: edge.To, IncomingLine: edge.LineID}
			nextKey := stateKey(next)

			if existing, ok := g[nextKey]; ok && gPrime >= existing {
				continue
			}
			g[nextKey] = gPrime
			pred[nextKey] = cur.state

			h := 0.0
			if opts.Heuristic != nil {
				nextPos, _ := e.graph.StopPosition(edge.To)
				h = opts.Heuristic.Estimate(nextPos.Position, dPos.Position)
			}
			tieBreak := 0.0
			if !opts.DisableTieBreak {
				tieBreak = 2 * float64(penalty)
			}
			heap.Push(pq, &heapItem{state: next, g: gPrime, priority: float64(gPrime) + h + tieBreak})
		}
	}

	return models.RawPath{} // unreachable: empty path, undefined cost
}

// isRealLine reports whether a line marker denotes an actual transit line
// rather than WALK or the origin sentinel.
func isRealLine(line string) bool {
	return line != models.LineWalk && line != models.LineOrigin
}

// reconstruct walks pred backwards from the goal state to the origin
// sentinel, then reverses, per spec.md §4.4 step 3.
func reconstruct(goal models.SearchState, cost int, pred map[string]models.SearchState) models.RawPath {
	var rev []models.SearchState
	cur := goal
	for {
		rev = append(rev, cur)
		p, ok := pred[stateKey(cur)]
		if !ok {
			break // cur is the origin sentinel: it has no predecessor entry
		}
		cur = p
	}

	nodes := make([]models.PathNode, len(rev))
	for i, s := range rev {
		nodes[len(rev)-1-i] = models.PathNode{State: s}
	}
	return models.RawPath{Nodes: nodes, Cost: cost}
}
