// Package walking implements the WalkingRouter: shortest path between two
// metric points over an external pedestrian street graph, falling back to
// a straight line when the graph doesn't help.
package walking

import "github.com/paulmach/orb"

// NodeID identifies a node of the pedestrian street graph.
type NodeID int64

// PedestrianGraph is the external collaborator described in spec.md §6:
// an undirected graph of (x,y) nodes with length_meters edges, plus a
// nearest-node primitive. WalkingRouter only depends on this interface, so
// it can be unit-tested against a small in-memory graph without a live
// street network.
type PedestrianGraph interface {
	// NearestNode returns the graph node closest to p, or false if the
	// graph has no nodes.
	NearestNode(p orb.Point) (NodeID, bool)
	// NodePosition returns a node's metric position.
	NodePosition(id NodeID) (orb.Point, bool)
	// Neighbors returns (neighbor, length_meters) pairs for a node's
	// incident edges. The graph is undirected: every edge is returned
	// from both endpoints.
	Neighbors(id NodeID) []NeighborEdge
}

// NeighborEdge is one edge out of a pedestrian-graph node.
type NeighborEdge struct {
	To          NodeID
	LengthMeters float64
}

// InMemoryGraph is a simple adjacency-list PedestrianGraph, sufficient for
// a single-service deployment and for tests. A production deployment would
// populate this from an external pedestrian network import (out of scope
// per spec.md §1).
type InMemoryGraph struct {
	positions map[NodeID]orb.Point
	adjacency map[NodeID][]NeighborEdge
}

// NewInMemoryGraph returns an empty pedestrian graph ready for AddNode/AddEdge.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{
		positions: make(map[NodeID]orb.Point),
		adjacency: make(map[NodeID][]NeighborEdge),
	}
}

// AddNode registers a node at a metric position.
func (g *InMemoryGraph) AddNode(id NodeID, pos orb.Point) {
	g.positions[id] = pos
}

// AddEdge adds an undirected edge of the given length between two nodes.
func (g *InMemoryGraph) AddEdge(a, b NodeID, lengthMeters float64) {
	g.adjacency[a] = append(g.adjacency[a], NeighborEdge{To: b, LengthMeters: lengthMeters})
	g.adjacency[b] = append(g.adjacency[b], NeighborEdge{To: a, LengthMeters: lengthMeters})
}

func (g *InMemoryGraph) NearestNode(p orb.Point) (NodeID, bool) {
	var best NodeID
	bestDist := -1.0
	found := false
	for id, pos := range g.positions {
		dx := pos[0] - p[0]
		dy := pos[1] - p[1]
		d := dx*dx + dy*dy
		if !found || d < bestDist {
			bestDist = d
			best = id
			found = true
		}
	}
	return best, found
}

func (g *InMemoryGraph) NodePosition(id NodeID) (orb.Point, bool) {
	p, ok := g.positions[id]
	return p, ok
}

func (g *InMemoryGraph) Neighbors(id NodeID) []NeighborEdge {
	return g.adjacency[id]
}
