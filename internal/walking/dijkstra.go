package walking

import "container/heap"

// pqEntry is one element of the Dijkstra open set. Mirrors the
// heapItem/priorityQueue shape used by the transit-line A* search in
// internal/search and by pmtiles' own pedestrian pathfinder: a min-heap ordered by
// cumulative distance, each entry tracking its own heap index for
// container/heap bookkeeping.
type pqEntry struct {
	node  NodeID
	dist  float64
	index int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	e := x.(*pqEntry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*pq = old[:n-1]
	return e
}

// shortestPath runs Dijkstra from src to dst over the pedestrian graph,
// returning the node sequence and total length in meters. ok is false if
// dst is unreachable from src.
func shortestPath(g PedestrianGraph, src, dst NodeID) (path []NodeID, lengthMeters float64, ok bool) {
	if src == dst {
		return []NodeID{src}, 0, true
	}

	dist := map[NodeID]float64{src: 0}
	prev := map[NodeID]NodeID{}
	visited := map[NodeID]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqEntry{node: src, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqEntry)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == dst {
			break
		}

		for _, edge := range g.Neighbors(cur.node) {
			if visited[edge.To] {
				continue
			}
			newDist := cur.dist + edge.LengthMeters
			if existing, seen := dist[edge.To]; !seen || newDist < existing {
				dist[edge.To] = newDist
				prev[edge.To] = cur.node
				heap.Push(pq, &pqEntry{node: edge.To, dist: newDist})
			}
		}
	}

	finalDist, reached := dist[dst]
	if !reached {
		return nil, 0, false
	}

	// Reconstruct path by walking prev backward from dst.
	rev := []NodeID{dst}
	for n := dst; n != src; {
		p, ok := prev[n]
		if !ok {
			return nil, 0, false
		}
		rev = append(rev, p)
		n = p
	}
	path = make([]NodeID, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path, finalDist, true
}
