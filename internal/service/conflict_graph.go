package service

import (
	"sort"

	"github.com/azsu-rae/asura-edt/internal/models"
)

// ConflictGraph is the undirected graph on modules where two modules are
// adjacent iff at least one student is enrolled in both. Days are the
// colors: adjacent modules must not share an exam day.
type ConflictGraph struct {
	order     []int64
	adjacency map[int64]map[int64]struct{}
}

// NewConflictGraph creates an empty graph over the given modules. Vertex
// order is module id ascending and is the stable tie-break everywhere.
func NewConflictGraph(moduleIDs []int64) *ConflictGraph {
	g := &ConflictGraph{
		order:     make([]int64, len(moduleIDs)),
		adjacency: make(map[int64]map[int64]struct{}, len(moduleIDs)),
	}
	copy(g.order, moduleIDs)
	sort.Slice(g.order, func(i, j int) bool { return g.order[i] < g.order[j] })
	for _, id := range g.order {
		g.adjacency[id] = make(map[int64]struct{})
	}
	return g
}

// AddEdge records a conflict between two modules.
func (g *ConflictGraph) AddEdge(a, b int64) {
	if a == b {
		return
	}
	g.adjacency[a][b] = struct{}{}
	g.adjacency[b][a] = struct{}{}
}

// HasEdge reports whether two modules conflict.
func (g *ConflictGraph) HasEdge(a, b int64) bool {
	_, ok := g.adjacency[a][b]
	return ok
}

// Degree returns the number of conflicting neighbors of a module.
func (g *ConflictGraph) Degree(id int64) int {
	return len(g.adjacency[id])
}

// Neighbors returns the conflicting modules of id in ascending order.
func (g *ConflictGraph) Neighbors(id int64) []int64 {
	neighbors := make([]int64, 0, len(g.adjacency[id]))
	for n := range g.adjacency[id] {
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
	return neighbors
}

// Modules returns the vertex list in id order.
func (g *ConflictGraph) Modules() []int64 {
	return g.order
}

// NumEdges returns the number of conflicts.
func (g *ConflictGraph) NumEdges() int {
	total := 0
	for _, adj := range g.adjacency {
		total += len(adj)
	}
	return total / 2
}

// BuildConflictGraph edges the graph from derived enrollment: every student
// of a formation sits every module of that formation, so each student
// contributes a clique over their module set.
func BuildConflictGraph(modules []models.Module, students []models.Student) *ConflictGraph {
	moduleIDs := make([]int64, 0, len(modules))
	modulesByFormation := make(map[int64][]int64)
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
		modulesByFormation[m.FormationID] = append(modulesByFormation[m.FormationID], m.ID)
	}

	g := NewConflictGraph(moduleIDs)
	for _, s := range students {
		mods := modulesByFormation[s.FormationID]
		for i := 0; i < len(mods); i++ {
			for j := i + 1; j < len(mods); j++ {
				g.AddEdge(mods[i], mods[j])
			}
		}
	}
	return g
}
