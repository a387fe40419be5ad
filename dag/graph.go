package dag

import (
	"fmt"
	"sort"
)

// Graph declares nodes and edges. Nodes keep insertion order.
type Graph struct {
	Nodes []string
	Edges []Edge

	index map[string]int
}

// Edge points from a node to one that must be placed after it.
type Edge struct {
	From string
	To   string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode registers id. It returns false for an empty or duplicate id.
func (g *Graph) AddNode(id string) bool {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	if id == "" {
		return false
	}
	if _, ok := g.index[id]; ok {
		return false
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, id)
	return true
}

// Has reports whether id is a node of g.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Position returns the insertion index of id, or -1.
func (g *Graph) Position(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// AddEdge registers an edge between two known nodes.
func (g *Graph) AddEdge(from, to string) error {
	if !g.Has(from) {
		return fmt.Errorf("dag: edge references unknown node %q", from)
	}
	if !g.Has(to) {
		return fmt.Errorf("dag: edge references unknown node %q", to)
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to})
	return nil
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level. A
// node's level is the length of the longest path reaching it from a source.
// Nodes within a level keep insertion order.
// Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string) // from -> [to...]

	for _, name := range g.Nodes {
		inDegree[name] = 0
	}

	for _, e := range g.Edges {
		if !g.Has(e.From) {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		if !g.Has(e.To) {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for _, name := range g.Nodes {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.SliceStable(next, func(i, j int) bool {
			return g.index[next[i]] < g.index[next[j]]
		})
		queue = next
	}

	if visited != len(g.Nodes) {
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d nodes", visited, len(g.Nodes))
	}

	return levels, nil
}
